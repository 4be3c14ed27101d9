package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
)

type identityUserRepository interface {
	FindByRA(ctx context.Context, ra string) (*models.Usuario, error)
	ListByTipo(ctx context.Context, tipo models.UserRole) ([]models.Usuario, error)
}

// IdentityService resolves human-entered registration codes to canonical
// user records and roles. It has no side effects.
type IdentityService struct {
	repo   identityUserRepository
	logger *zap.Logger
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(repo identityUserRepository, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{repo: repo, logger: logger}
}

// ResolveRA maps an RA to its user record. A miss is NotFound; a store
// failure is surfaced as BackendUnavailable so callers can degrade.
func (s *IdentityService) ResolveRA(ctx context.Context, ra string) (*models.Usuario, error) {
	user, err := s.repo.FindByRA(ctx, ra)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "usuario not found for ra")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "failed to resolve ra")
	}
	return user, nil
}

// ResolveStudentRA resolves an RA and additionally requires the aluno role.
func (s *IdentityService) ResolveStudentRA(ctx context.Context, ra string) (*models.Usuario, error) {
	user, err := s.ResolveRA(ctx, ra)
	if err != nil {
		return nil, err
	}
	if user.Tipo != models.RoleAluno {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "ra does not belong to a student")
	}
	return user, nil
}

// ListByRole enumerates users with the given role. When the store is
// unreachable this degrades to an empty result with a logged warning
// instead of propagating a hard failure.
func (s *IdentityService) ListByRole(ctx context.Context, tipo models.UserRole) []models.Usuario {
	users, err := s.repo.ListByTipo(ctx, tipo)
	if err != nil {
		s.logger.Warn("user enumeration failed, returning empty result", zap.String("tipo", string(tipo)), zap.Error(err))
		return []models.Usuario{}
	}
	return users
}
