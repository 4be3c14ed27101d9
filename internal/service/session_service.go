package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
)

type sessionTurmaRepository interface {
	Create(ctx context.Context, turma *models.Turma) error
	FindByID(ctx context.Context, id int64) (*models.Turma, error)
	List(ctx context.Context, professorID *int64) ([]models.Turma, error)
	ListByAluno(ctx context.Context, alunoID int64) ([]models.Turma, error)
	AddAluno(ctx context.Context, alunoID, turmaID int64) error
	HasAluno(ctx context.Context, alunoID, turmaID int64) (bool, error)
}

type sessionAulaRepository interface {
	Create(ctx context.Context, aula *models.Aula) error
	FindByToken(ctx context.Context, token string) (*models.Aula, error)
	ListByTurma(ctx context.Context, turmaID int64) ([]models.Aula, error)
	MostRecentByTurma(ctx context.Context, turmaID int64) (*models.Aula, error)
}

type sessionUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Usuario, error)
}

// CreateTurmaRequest holds payload for creating class groups.
type CreateTurmaRequest struct {
	Nome        string  `json:"nome" validate:"required"`
	Descricao   *string `json:"descricao"`
	ProfessorID int64   `json:"professor_id" validate:"required"`
}

// SessionService manages turmas and aulas, including the one-time QR token
// generated per session.
type SessionService struct {
	turmas    sessionTurmaRepository
	aulas     sessionAulaRepository
	users     sessionUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(turmas sessionTurmaRepository, aulas sessionAulaRepository, users sessionUserRepository, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{turmas: turmas, aulas: aulas, users: users, validator: validate, logger: logger}
}

// CreateTurma registers a new class group owned by one professor.
func (s *SessionService) CreateTurma(ctx context.Context, req CreateTurmaRequest) (*models.Turma, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid turma payload")
	}

	professor, err := s.users.FindByID(ctx, req.ProfessorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if professor.Tipo != models.RoleProfessor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "turma owner must be a professor")
	}

	turma := &models.Turma{
		Nome:        req.Nome,
		Descricao:   req.Descricao,
		ProfessorID: req.ProfessorID,
	}
	if err := s.turmas.Create(ctx, turma); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create turma")
	}
	return turma, nil
}

// ListTurmas returns all turmas, optionally filtered by professor.
func (s *SessionService) ListTurmas(ctx context.Context, professorID *int64) ([]models.Turma, error) {
	turmas, err := s.turmas.List(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list turmas")
	}
	return turmas, nil
}

// ListTurmasByAluno returns the turmas a student is enrolled in.
func (s *SessionService) ListTurmasByAluno(ctx context.Context, alunoID int64) ([]models.Turma, error) {
	turmas, err := s.turmas.ListByAluno(ctx, alunoID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list turmas for aluno")
	}
	return turmas, nil
}

// EnrollAluno adds a student to a turma roster; enrolling twice is a no-op.
func (s *SessionService) EnrollAluno(ctx context.Context, alunoID, turmaID int64) error {
	if _, err := s.turmas.FindByID(ctx, turmaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}
	if err := s.turmas.AddAluno(ctx, alunoID, turmaID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll aluno")
	}
	return nil
}

// CreateAula opens a new session for the turma, stamped now and carrying a
// freshly generated QR token.
func (s *SessionService) CreateAula(ctx context.Context, turmaID int64) (*models.Aula, error) {
	if _, err := s.turmas.FindByID(ctx, turmaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	aula := &models.Aula{
		TurmaID: turmaID,
		QRToken: generateQRToken(),
	}
	if err := s.aulas.Create(ctx, aula); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create aula")
	}
	return aula, nil
}

// ListAulas returns the sessions of a turma, most recent first.
func (s *SessionService) ListAulas(ctx context.Context, turmaID int64) ([]models.Aula, error) {
	aulas, err := s.aulas.ListByTurma(ctx, turmaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list aulas")
	}
	return aulas, nil
}

// GetAulaByToken resolves a scanned QR token to its aula.
func (s *SessionService) GetAulaByToken(ctx context.Context, token string) (*models.Aula, error) {
	aula, err := s.aulas.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "aula not found for token")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve token")
	}
	return aula, nil
}

// MostRecentAula returns the latest session of a turma, or nil when the
// turma has none yet.
func (s *SessionService) MostRecentAula(ctx context.Context, turmaID int64) (*models.Aula, error) {
	aula, err := s.aulas.MostRecentByTurma(ctx, turmaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load most recent aula")
	}
	return aula, nil
}

// generateQRToken concatenates two independent random base-36 fragments.
// Collision probability is treated as negligible; the aulas.qr_token unique
// index backstops it.
func generateQRToken() string {
	return strconv.FormatUint(rand.Uint64(), 36) + strconv.FormatUint(rand.Uint64(), 36)
}
