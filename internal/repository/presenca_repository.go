package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

// PresencaRepository provides database access for attendance records.
type PresencaRepository struct {
	db *sqlx.DB
}

// NewPresencaRepository creates a new instance of PresencaRepository.
func NewPresencaRepository(db *sqlx.DB) *PresencaRepository {
	return &PresencaRepository{db: db}
}

// FindByAulaAndAluno returns the attendance rows for one (aula, aluno) pair.
// More than one row means the known check-then-insert race fired.
func (r *PresencaRepository) FindByAulaAndAluno(ctx context.Context, aulaID, alunoID int64) ([]models.Presenca, error) {
	const query = `SELECT id, aula_id, aluno_id, registrada_por, horario FROM presencas WHERE aula_id = $1 AND aluno_id = $2`
	var presencas []models.Presenca
	if err := r.db.SelectContext(ctx, &presencas, query, aulaID, alunoID); err != nil {
		return nil, fmt.Errorf("find presencas by aula and aluno: %w", err)
	}
	return presencas, nil
}

// Insert stores a new attendance record and fills in the generated id.
func (r *PresencaRepository) Insert(ctx context.Context, presenca *models.Presenca) error {
	if presenca.Horario.IsZero() {
		presenca.Horario = time.Now().UTC()
	}
	const query = `INSERT INTO presencas (aula_id, aluno_id, registrada_por, horario) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &presenca.ID, query, presenca.AulaID, presenca.AlunoID, presenca.RegistradaPor, presenca.Horario); err != nil {
		return fmt.Errorf("insert presenca: %w", err)
	}
	return nil
}

// ListByAluno returns every attendance record for a student.
func (r *PresencaRepository) ListByAluno(ctx context.Context, alunoID int64) ([]models.Presenca, error) {
	const query = `SELECT id, aula_id, aluno_id, registrada_por, horario FROM presencas WHERE aluno_id = $1 ORDER BY horario DESC`
	var presencas []models.Presenca
	if err := r.db.SelectContext(ctx, &presencas, query, alunoID); err != nil {
		return nil, fmt.Errorf("list presencas by aluno: %w", err)
	}
	return presencas, nil
}

// CountByAluno returns the total attendance count for a student.
func (r *PresencaRepository) CountByAluno(ctx context.Context, alunoID int64) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM presencas WHERE aluno_id = $1`, alunoID); err != nil {
		return 0, fmt.Errorf("count presencas by aluno: %w", err)
	}
	return total, nil
}

// CountByAlunoAndTurma counts a student's attendances within one turma.
func (r *PresencaRepository) CountByAlunoAndTurma(ctx context.Context, alunoID, turmaID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM presencas p JOIN aulas a ON a.id = p.aula_id WHERE p.aluno_id = $1 AND a.turma_id = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, alunoID, turmaID); err != nil {
		return 0, fmt.Errorf("count presencas by aluno and turma: %w", err)
	}
	return total, nil
}

// CountAll returns the number of presencas rows.
func (r *PresencaRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM presencas`); err != nil {
		return 0, fmt.Errorf("count presencas: %w", err)
	}
	return total, nil
}

// DeleteAll removes every attendance record. Bulk test-data teardown only.
func (r *PresencaRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM presencas`); err != nil {
		return fmt.Errorf("delete presencas: %w", err)
	}
	return nil
}
