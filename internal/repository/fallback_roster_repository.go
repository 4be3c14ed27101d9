package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

// RosterBackend is the roster persistence contract implemented by both the
// primary Postgres repository and the local JSON fallback store. A miss is
// signalled with sql.ErrNoRows by either backend.
type RosterBackend interface {
	List(ctx context.Context) ([]models.AlunoCompleto, error)
	FindByRA(ctx context.Context, ra string) (*models.AlunoCompleto, error)
	Upsert(ctx context.Context, aluno *models.AlunoCompleto) (*models.AlunoCompleto, error)
}

// FallbackRosterRepository decorates the primary backend with a
// degrade-to-local policy: every operation tries the primary first and, on
// any error other than a clean miss, logs a warning and retries against the
// fallback. The two backends are never reconciled; results carry the source
// that served them so callers can tell which copy of the data they saw.
type FallbackRosterRepository struct {
	primary  RosterBackend
	fallback RosterBackend
	logger   *zap.Logger
}

// NewFallbackRosterRepository wires the decorator.
func NewFallbackRosterRepository(primary, fallback RosterBackend, logger *zap.Logger) *FallbackRosterRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackRosterRepository{primary: primary, fallback: fallback, logger: logger}
}

// List returns the roster from the primary store, or from the local store
// when the primary is unreachable.
func (r *FallbackRosterRepository) List(ctx context.Context) ([]models.AlunoCompleto, models.RosterSource, error) {
	alunos, err := r.primary.List(ctx)
	if err == nil {
		return alunos, models.SourcePrimary, nil
	}
	r.logger.Warn("primary roster store failed, serving local fallback", zap.Error(err))
	alunos, ferr := r.fallback.List(ctx)
	if ferr != nil {
		return nil, models.SourceFallback, ferr
	}
	return alunos, models.SourceFallback, nil
}

// FindByRA resolves one student, degrading to the local store on backend
// failure. A clean miss on the primary is a miss, not a degrade trigger.
func (r *FallbackRosterRepository) FindByRA(ctx context.Context, ra string) (*models.AlunoCompleto, models.RosterSource, error) {
	aluno, err := r.primary.FindByRA(ctx, ra)
	if err == nil {
		return aluno, models.SourcePrimary, nil
	}
	if err == sql.ErrNoRows {
		return nil, models.SourcePrimary, err
	}
	r.logger.Warn("primary roster store failed, reading local fallback", zap.Error(err), zap.String("ra", ra))
	aluno, ferr := r.fallback.FindByRA(ctx, ra)
	if ferr != nil {
		return nil, models.SourceFallback, ferr
	}
	return aluno, models.SourceFallback, nil
}

// Upsert writes through to the primary store; when it is unreachable the
// record lands in the local store only and will not be visible to
// primary-backed reads until independently rewritten.
func (r *FallbackRosterRepository) Upsert(ctx context.Context, aluno *models.AlunoCompleto) (*models.AlunoCompleto, models.RosterSource, error) {
	saved, err := r.primary.Upsert(ctx, aluno)
	if err == nil {
		return saved, models.SourcePrimary, nil
	}
	r.logger.Warn("primary roster store failed, writing local fallback", zap.Error(err), zap.String("ra", aluno.RA))
	saved, ferr := r.fallback.Upsert(ctx, aluno)
	if ferr != nil {
		return nil, models.SourceFallback, ferr
	}
	return saved, models.SourceFallback, nil
}
