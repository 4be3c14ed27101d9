package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

func newLocalStore(t *testing.T) *LocalRosterStore {
	store, err := NewLocalRosterStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalRosterStoreUpsertAndFind(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	peso := 75.5
	saved, err := store.Upsert(ctx, &models.AlunoCompleto{
		Usuario:  models.Usuario{RA: "2024001", Nome: "Joao Silva"},
		Detalhes: &models.AlunoDetalhes{Faixa: models.FaixaAzul, Peso: &peso},
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	found, err := store.FindByRA(ctx, "2024001")
	require.NoError(t, err)
	assert.Equal(t, "Joao Silva", found.Nome)
	require.NotNil(t, found.Detalhes)
	assert.Equal(t, models.FaixaAzul, found.Detalhes.Faixa)
	require.NotNil(t, found.Detalhes.Peso)
	assert.Equal(t, 75.5, *found.Detalhes.Peso)
}

func TestLocalRosterStoreFindMiss(t *testing.T) {
	store := newLocalStore(t)

	_, err := store.FindByRA(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLocalRosterStoreUpsertKeyedByRA(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, &models.AlunoCompleto{
		Usuario:  models.Usuario{RA: "2024001", Nome: "Joao"},
		Detalhes: &models.AlunoDetalhes{Faixa: models.FaixaBranca},
	})
	require.NoError(t, err)

	second, err := store.Upsert(ctx, &models.AlunoCompleto{
		Usuario:  models.Usuario{RA: "2024001", Nome: "Joao Silva"},
		Detalhes: &models.AlunoDetalhes{Faixa: models.FaixaAzul},
	})
	require.NoError(t, err)

	// Same RA keeps the same id: update, not duplicate.
	assert.Equal(t, first.ID, second.ID)

	alunos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, alunos, 1)
	assert.Equal(t, "Joao Silva", alunos[0].Nome)
	assert.Equal(t, models.FaixaAzul, alunos[0].Detalhes.Faixa)
}

func TestLocalRosterStoreRecordAttendance(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, &models.AlunoCompleto{
		Usuario:  models.Usuario{RA: "2024001", Nome: "Joao"},
		Detalhes: &models.AlunoDetalhes{Faixa: models.FaixaBranca},
	})
	require.NoError(t, err)

	ok, err := store.RecordAttendance(ctx, "2024001")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.RecordAttendance(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := store.FindByRA(ctx, "2024001")
	require.NoError(t, err)
	assert.Equal(t, 1, found.TotalPresencas)

	attendances, err := store.Attendances(ctx)
	require.NoError(t, err)
	require.Len(t, attendances, 1)
	assert.Equal(t, "2024001", attendances[0].StudentRA)
	assert.NotEmpty(t, attendances[0].ID)
}

func TestLocalRosterStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewLocalRosterStore(dir)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, &models.AlunoCompleto{
		Usuario:  models.Usuario{RA: "2024002", Nome: "Maria"},
		Detalhes: &models.AlunoDetalhes{Faixa: models.FaixaRoxa},
	})
	require.NoError(t, err)

	reopened, err := NewLocalRosterStore(dir)
	require.NoError(t, err)
	found, err := reopened.FindByRA(ctx, "2024002")
	require.NoError(t, err)
	assert.Equal(t, "Maria", found.Nome)
}
