package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
)

type attendancePresencaRepository interface {
	FindByAulaAndAluno(ctx context.Context, aulaID, alunoID int64) ([]models.Presenca, error)
	Insert(ctx context.Context, presenca *models.Presenca) error
	ListByAluno(ctx context.Context, alunoID int64) ([]models.Presenca, error)
	CountByAluno(ctx context.Context, alunoID int64) (int, error)
}

type attendanceAulaRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Aula, error)
	FindByToken(ctx context.Context, token string) (*models.Aula, error)
	MostRecentByTurma(ctx context.Context, turmaID int64) (*models.Aula, error)
}

type attendanceTurmaRepository interface {
	HasAluno(ctx context.Context, alunoID, turmaID int64) (bool, error)
	ListByAluno(ctx context.Context, alunoID int64) ([]models.Turma, error)
}

type attendanceIdentityResolver interface {
	ResolveStudentRA(ctx context.Context, ra string) (*models.Usuario, error)
}

type attendanceLocalStore interface {
	RecordAttendance(ctx context.Context, ra string) (bool, error)
	Attendances(ctx context.Context) ([]models.LocalAttendance, error)
}

// AttendanceService records class attendance with at-most-once semantics:
// recording the same (aula, aluno) pair again is a successful no-op, reported
// through the alreadyRecorded flag rather than an error.
//
// The duplicate check and the insert are two statements without a backing
// unique constraint, so two concurrent requests for the same pair can both
// pass the check and both insert. That window is accepted; readers count
// distinct pairs where it matters.
//
// The RA-based flows additionally degrade to the local roster store when the
// primary store is down, so a student at the door can still check in.
type AttendanceService struct {
	presencas attendancePresencaRepository
	aulas     attendanceAulaRepository
	turmas    attendanceTurmaRepository
	identity  attendanceIdentityResolver
	local     attendanceLocalStore
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service. The local store is
// optional; without it the RA-based flows fail hard when the primary store
// is unreachable.
func NewAttendanceService(presencas attendancePresencaRepository, aulas attendanceAulaRepository, turmas attendanceTurmaRepository, identity attendanceIdentityResolver, local attendanceLocalStore, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{presencas: presencas, aulas: aulas, turmas: turmas, identity: identity, local: local, logger: logger}
}

// Record stores one attendance for (aulaID, alunoID), attributed to
// recorderID. When the pair is already recorded it returns the existing row
// with alreadyRecorded=true and does not write.
func (s *AttendanceService) Record(ctx context.Context, aulaID, alunoID, recorderID int64) (*models.Presenca, bool, error) {
	if _, err := s.aulas.FindByID(ctx, aulaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "aula not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aula")
	}

	existing, err := s.presencas.FindByAulaAndAluno(ctx, aulaID, alunoID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing presenca")
	}
	if len(existing) > 0 {
		s.logger.Info("presenca already recorded",
			zap.Int64("aula_id", aulaID),
			zap.Int64("aluno_id", alunoID))
		return &existing[0], true, nil
	}

	presenca := &models.Presenca{
		AulaID:        aulaID,
		AlunoID:       alunoID,
		RegistradaPor: recorderID,
	}
	if err := s.presencas.Insert(ctx, presenca); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record presenca")
	}

	s.logger.Info("presenca recorded",
		zap.Int64("presenca_id", presenca.ID),
		zap.Int64("aula_id", aulaID),
		zap.Int64("aluno_id", alunoID),
		zap.Int64("registrada_por", recorderID))
	return presenca, false, nil
}

// RecordByRAAndToken is the QR check-in flow: the scanned token resolves the
// aula, the typed RA resolves the student, and the student is their own
// recorder. A primary-store outage degrades to the local roster store.
func (s *AttendanceService) RecordByRAAndToken(ctx context.Context, ra, token string) (*models.Presenca, bool, error) {
	presenca, already, err := s.recordByToken(ctx, ra, token)
	if err == nil {
		return presenca, already, nil
	}
	if local, ok := s.recordLocally(ctx, ra, err); ok {
		return local, false, nil
	}
	return nil, false, err
}

func (s *AttendanceService) recordByToken(ctx context.Context, ra, token string) (*models.Presenca, bool, error) {
	aula, err := s.aulas.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "aula not found for token")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve token")
	}

	aluno, err := s.identity.ResolveStudentRA(ctx, ra)
	if err != nil {
		return nil, false, err
	}

	return s.Record(ctx, aula.ID, aluno.ID, aluno.ID)
}

// RecordSelfService is the no-QR flow: the student picks one of their turmas
// and is recorded into that turma's most recent aula. A turma with no aulas
// yet means there is nothing to check into. A primary-store outage degrades
// to the local roster store.
func (s *AttendanceService) RecordSelfService(ctx context.Context, ra string, turmaID int64) (*models.Presenca, bool, error) {
	presenca, already, err := s.recordSelfService(ctx, ra, turmaID)
	if err == nil {
		return presenca, already, nil
	}
	if local, ok := s.recordLocally(ctx, ra, err); ok {
		return local, false, nil
	}
	return nil, false, err
}

func (s *AttendanceService) recordSelfService(ctx context.Context, ra string, turmaID int64) (*models.Presenca, bool, error) {
	aluno, err := s.identity.ResolveStudentRA(ctx, ra)
	if err != nil {
		return nil, false, err
	}

	enrolled, err := s.turmas.HasAluno(ctx, aluno.ID, turmaID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check turma membership")
	}
	if !enrolled {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "aluno is not enrolled in this turma")
	}

	aula, err := s.aulas.MostRecentByTurma(ctx, turmaID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load most recent aula")
	}
	if aula == nil {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "turma has no aulas yet")
	}

	return s.Record(ctx, aula.ID, aluno.ID, aluno.ID)
}

// recordLocally writes the check-in to the local roster store when the cause
// is a store outage rather than a domain rejection. It only records students
// the local snapshot already knows; domain errors (bad token, unknown RA,
// not enrolled) never degrade. The returned row is synthetic: the local
// store keys attendance by RA, not by aula, so no primary identifiers exist.
func (s *AttendanceService) recordLocally(ctx context.Context, ra string, cause error) (*models.Presenca, bool) {
	if s.local == nil {
		return nil, false
	}
	switch appErrors.FromError(cause).Code {
	case appErrors.ErrInternal.Code, appErrors.ErrBackendUnavailable.Code:
	default:
		return nil, false
	}
	recorded, err := s.local.RecordAttendance(ctx, ra)
	if err != nil {
		s.logger.Error("local attendance write failed", zap.String("ra", ra), zap.Error(err))
		return nil, false
	}
	if !recorded {
		return nil, false
	}
	s.logger.Warn("primary store unavailable, presenca recorded locally",
		zap.String("ra", ra),
		zap.Error(cause))
	return &models.Presenca{Horario: time.Now().UTC()}, true
}

// ListTurmasForRA returns the turmas a student can self-check into.
func (s *AttendanceService) ListTurmasForRA(ctx context.Context, ra string) ([]models.Turma, error) {
	aluno, err := s.identity.ResolveStudentRA(ctx, ra)
	if err != nil {
		return nil, err
	}
	turmas, err := s.turmas.ListByAluno(ctx, aluno.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list turmas for aluno")
	}
	return turmas, nil
}

// ListByRA returns a student's attendance history, most recent first. When
// the primary store is down, history recorded locally for the RA is served
// instead.
func (s *AttendanceService) ListByRA(ctx context.Context, ra string) ([]models.Presenca, error) {
	presencas, err := s.listByRA(ctx, ra)
	if err == nil {
		return presencas, nil
	}
	if local, ok := s.listLocally(ctx, ra, err); ok {
		return local, nil
	}
	return nil, err
}

func (s *AttendanceService) listByRA(ctx context.Context, ra string) ([]models.Presenca, error) {
	aluno, err := s.identity.ResolveStudentRA(ctx, ra)
	if err != nil {
		return nil, err
	}
	presencas, err := s.presencas.ListByAluno(ctx, aluno.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list presencas")
	}
	return presencas, nil
}

// listLocally serves locally recorded attendance entries during a primary
// outage. An RA with no local entries surfaces the original error instead
// of masking it with an empty history.
func (s *AttendanceService) listLocally(ctx context.Context, ra string, cause error) ([]models.Presenca, bool) {
	if s.local == nil {
		return nil, false
	}
	switch appErrors.FromError(cause).Code {
	case appErrors.ErrInternal.Code, appErrors.ErrBackendUnavailable.Code:
	default:
		return nil, false
	}
	entries, err := s.local.Attendances(ctx)
	if err != nil {
		s.logger.Error("local attendance read failed", zap.String("ra", ra), zap.Error(err))
		return nil, false
	}
	var presencas []models.Presenca
	for _, entry := range entries {
		if entry.StudentRA != ra {
			continue
		}
		horario, err := time.Parse(time.RFC3339, entry.Date)
		if err != nil {
			continue
		}
		presencas = append(presencas, models.Presenca{Horario: horario})
	}
	if len(presencas) == 0 {
		return nil, false
	}
	s.logger.Warn("primary store unavailable, serving local attendance history",
		zap.String("ra", ra),
		zap.Error(cause))
	return presencas, true
}

// CountByRA returns a student's total attendance count.
func (s *AttendanceService) CountByRA(ctx context.Context, ra string) (int, error) {
	aluno, err := s.identity.ResolveStudentRA(ctx, ra)
	if err != nil {
		return 0, err
	}
	total, err := s.presencas.CountByAluno(ctx, aluno.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count presencas")
	}
	return total, nil
}
