package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
)

type fakeRosterRepo struct {
	alunos []models.AlunoCompleto
	source models.RosterSource
	err    error
}

func (f *fakeRosterRepo) List(ctx context.Context) ([]models.AlunoCompleto, models.RosterSource, error) {
	return f.alunos, f.source, f.err
}

func (f *fakeRosterRepo) FindByRA(ctx context.Context, ra string) (*models.AlunoCompleto, models.RosterSource, error) {
	if f.err != nil {
		return nil, f.source, f.err
	}
	for i := range f.alunos {
		if f.alunos[i].RA == ra {
			return &f.alunos[i], f.source, nil
		}
	}
	return nil, f.source, sql.ErrNoRows
}

func (f *fakeRosterRepo) Upsert(ctx context.Context, aluno *models.AlunoCompleto) (*models.AlunoCompleto, models.RosterSource, error) {
	if f.err != nil {
		return nil, f.source, f.err
	}
	f.alunos = append(f.alunos, *aluno)
	return aluno, f.source, nil
}

type fakeCache struct {
	entries     map[string][]byte
	sets        int
	invalidated bool
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	if _, ok := f.entries[key]; ok {
		if out, ok := dest.(*[]models.AlunoCompleto); ok {
			*out = []models.AlunoCompleto{{Usuario: models.Usuario{RA: "cached"}}}
		}
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.entries == nil {
		f.entries = map[string][]byte{}
	}
	f.entries[key] = []byte("x")
	f.sets++
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.entries = nil
	f.invalidated = true
	return nil
}

func TestRosterListCachesPrimaryResults(t *testing.T) {
	repo := &fakeRosterRepo{
		alunos: []models.AlunoCompleto{{Usuario: models.Usuario{RA: "2024001", Nome: "Joao"}}},
		source: models.SourcePrimary,
	}
	cache := &fakeCache{}
	svc := NewRosterService(repo, cache, time.Minute, nil, nil)
	ctx := context.Background()

	alunos, source, cacheHit, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourcePrimary, source)
	assert.False(t, cacheHit)
	require.Len(t, alunos, 1)
	assert.Equal(t, 1, cache.sets)

	_, _, cacheHit, err = svc.List(ctx)
	require.NoError(t, err)
	assert.True(t, cacheHit)
}

func TestRosterListFallbackResultsAreNotCached(t *testing.T) {
	repo := &fakeRosterRepo{
		alunos: []models.AlunoCompleto{{Usuario: models.Usuario{RA: "2024001"}}},
		source: models.SourceFallback,
	}
	cache := &fakeCache{}
	svc := NewRosterService(repo, cache, time.Minute, nil, nil)

	alunos, source, cacheHit, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceFallback, source)
	assert.False(t, cacheHit)
	require.Len(t, alunos, 1)
	assert.Zero(t, cache.sets)
}

func TestRosterGetByRAMiss(t *testing.T) {
	repo := &fakeRosterRepo{source: models.SourcePrimary}
	svc := NewRosterService(repo, nil, time.Minute, nil, nil)

	_, _, err := svc.GetByRA(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterUpsertInvalidatesCache(t *testing.T) {
	repo := &fakeRosterRepo{source: models.SourcePrimary}
	cache := &fakeCache{entries: map[string][]byte{rosterCacheKey: []byte("x")}}
	svc := NewRosterService(repo, cache, time.Minute, nil, nil)

	saved, source, err := svc.Upsert(context.Background(), UpsertStudentRequest{
		RA:    "2024001",
		Nome:  "Joao Silva",
		Faixa: models.FaixaAzul,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourcePrimary, source)
	assert.Equal(t, models.RoleAluno, saved.Tipo)
	assert.True(t, cache.invalidated)
}

func TestRosterUpsertValidatesPayload(t *testing.T) {
	repo := &fakeRosterRepo{source: models.SourcePrimary}
	svc := NewRosterService(repo, nil, time.Minute, nil, nil)
	ctx := context.Background()

	_, _, err := svc.Upsert(ctx, UpsertStudentRequest{RA: "2024001", Nome: "Joao", Faixa: "Amarela"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Upsert(ctx, UpsertStudentRequest{Nome: "Sem RA", Faixa: models.FaixaBranca})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.alunos)
}

func TestRosterUpsertTaggedFallbackWhenDegraded(t *testing.T) {
	repo := &fakeRosterRepo{source: models.SourceFallback}
	svc := NewRosterService(repo, nil, time.Minute, nil, nil)

	_, source, err := svc.Upsert(context.Background(), UpsertStudentRequest{
		RA:    "2024003",
		Nome:  "Pedro",
		Faixa: models.FaixaRoxa,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SourceFallback, source)
}

func TestRosterListError(t *testing.T) {
	repo := &fakeRosterRepo{source: models.SourceFallback, err: errors.New("disk full")}
	svc := NewRosterService(repo, nil, time.Minute, nil, nil)

	_, _, _, err := svc.List(context.Background())
	assert.Error(t, err)
}
