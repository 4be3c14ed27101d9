package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

type fakeRosterBackend struct {
	alunos []models.AlunoCompleto
	err    error
}

func (f *fakeRosterBackend) List(ctx context.Context) ([]models.AlunoCompleto, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.alunos, nil
}

func (f *fakeRosterBackend) FindByRA(ctx context.Context, ra string) (*models.AlunoCompleto, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.alunos {
		if f.alunos[i].RA == ra {
			return &f.alunos[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRosterBackend) Upsert(ctx context.Context, aluno *models.AlunoCompleto) (*models.AlunoCompleto, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.alunos {
		if f.alunos[i].RA == aluno.RA {
			f.alunos[i] = *aluno
			return aluno, nil
		}
	}
	f.alunos = append(f.alunos, *aluno)
	return aluno, nil
}

func sampleAluno(ra, nome string) models.AlunoCompleto {
	return models.AlunoCompleto{Usuario: models.Usuario{RA: ra, Nome: nome, Tipo: models.RoleAluno}}
}

func TestFallbackRosterListPrimaryHealthy(t *testing.T) {
	primary := &fakeRosterBackend{alunos: []models.AlunoCompleto{sampleAluno("2024001", "Joao")}}
	fallback := &fakeRosterBackend{alunos: []models.AlunoCompleto{sampleAluno("2024099", "Stale")}}
	repo := NewFallbackRosterRepository(primary, fallback, nil)

	alunos, source, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourcePrimary, source)
	require.Len(t, alunos, 1)
	assert.Equal(t, "2024001", alunos[0].RA)
}

func TestFallbackRosterListDegrades(t *testing.T) {
	primary := &fakeRosterBackend{err: errors.New("connection refused")}
	fallback := &fakeRosterBackend{alunos: []models.AlunoCompleto{sampleAluno("2024001", "Joao")}}
	repo := NewFallbackRosterRepository(primary, fallback, nil)

	alunos, source, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceFallback, source)
	require.Len(t, alunos, 1)
}

func TestFallbackRosterFindCleanMissIsNotDegrade(t *testing.T) {
	primary := &fakeRosterBackend{}
	fallback := &fakeRosterBackend{alunos: []models.AlunoCompleto{sampleAluno("2024001", "OnlyLocal")}}
	repo := NewFallbackRosterRepository(primary, fallback, nil)

	// A healthy primary that simply has no such RA is a miss, even though the
	// fallback would have found it.
	aluno, source, err := repo.FindByRA(context.Background(), "2024001")
	assert.Nil(t, aluno)
	assert.Equal(t, models.SourcePrimary, source)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFallbackRosterUpsertDegrades(t *testing.T) {
	primary := &fakeRosterBackend{err: errors.New("connection refused")}
	fallback := &fakeRosterBackend{}
	repo := NewFallbackRosterRepository(primary, fallback, nil)

	aluno := sampleAluno("2024003", "Pedro")
	saved, source, err := repo.Upsert(context.Background(), &aluno)
	require.NoError(t, err)
	assert.Equal(t, models.SourceFallback, source)
	assert.Equal(t, "Pedro", saved.Nome)

	// Written to the local copy only; never reconciled back to the primary.
	assert.Empty(t, primary.alunos)
	assert.Len(t, fallback.alunos, 1)
}

func TestFallbackRosterBothBackendsFail(t *testing.T) {
	primary := &fakeRosterBackend{err: errors.New("connection refused")}
	fallback := &fakeRosterBackend{err: errors.New("disk full")}
	repo := NewFallbackRosterRepository(primary, fallback, nil)

	_, source, err := repo.List(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.SourceFallback, source)
}
