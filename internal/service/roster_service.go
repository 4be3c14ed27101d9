package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
)

const rosterCacheKey = "roster:students"

type rosterRepository interface {
	List(ctx context.Context) ([]models.AlunoCompleto, models.RosterSource, error)
	FindByRA(ctx context.Context, ra string) (*models.AlunoCompleto, models.RosterSource, error)
	Upsert(ctx context.Context, aluno *models.AlunoCompleto) (*models.AlunoCompleto, models.RosterSource, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// UpsertStudentRequest holds the payload for saving a composite student
// record keyed by RA.
type UpsertStudentRequest struct {
	RA           string       `json:"ra" validate:"required"`
	Nome         string       `json:"nome" validate:"required"`
	Faixa        models.Faixa `json:"faixa" validate:"required,oneof=Branca Azul Roxa Marrom Preta"`
	Peso         *float64     `json:"peso" validate:"omitempty,gt=0"`
	Altura       *int         `json:"altura" validate:"omitempty,gt=0"`
	TempoPratica *int         `json:"tempo_pratica" validate:"omitempty,gte=0"`
}

// RosterService exposes the student roster use-cases over the dual-backend
// repository: reads are cache-aside, writes invalidate, and every result is
// tagged with the backend that served it.
type RosterService struct {
	repo      rosterRepository
	cache     rosterCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(repo rosterRepository, cache rosterCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns all students with their details and attendance counts. Cached
// primary results are served as primary with the cache-hit flag set.
func (s *RosterService) List(ctx context.Context) ([]models.AlunoCompleto, models.RosterSource, bool, error) {
	if s.cache != nil {
		var cached []models.AlunoCompleto
		if err := s.cache.Get(ctx, rosterCacheKey, &cached); err == nil {
			return cached, models.SourcePrimary, true, nil
		}
	}

	alunos, source, err := s.repo.List(ctx)
	if err != nil {
		return nil, source, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	if s.cache != nil && source == models.SourcePrimary {
		if err := s.cache.Set(ctx, rosterCacheKey, alunos, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache roster list", zap.Error(err))
		}
	}

	return alunos, source, false, nil
}

// GetByRA returns the composite record for one student.
func (s *RosterService) GetByRA(ctx context.Context, ra string) (*models.AlunoCompleto, models.RosterSource, error) {
	aluno, source, err := s.repo.FindByRA(ctx, ra)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, source, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, source, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return aluno, source, nil
}

// Upsert saves the student keyed by RA. Two sequential writes back the
// operation on the primary store (user row then detail row); they are not
// one transaction, so a failure in between can leave a user without details.
func (s *RosterService) Upsert(ctx context.Context, req UpsertStudentRequest) (*models.AlunoCompleto, models.RosterSource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, models.SourcePrimary, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	aluno := &models.AlunoCompleto{
		Usuario: models.Usuario{
			RA:   req.RA,
			Nome: req.Nome,
			Tipo: models.RoleAluno,
		},
		Detalhes: &models.AlunoDetalhes{
			Faixa:        req.Faixa,
			Peso:         req.Peso,
			Altura:       req.Altura,
			TempoPratica: req.TempoPratica,
		},
	}

	saved, source, err := s.repo.Upsert(ctx, aluno)
	if err != nil {
		return nil, source, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "roster:*"); err != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
		}
	}

	return saved, source, nil
}
