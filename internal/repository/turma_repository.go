package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

// TurmaRepository provides database access for turmas and their rosters.
type TurmaRepository struct {
	db *sqlx.DB
}

// NewTurmaRepository creates a new instance of TurmaRepository.
func NewTurmaRepository(db *sqlx.DB) *TurmaRepository {
	return &TurmaRepository{db: db}
}

// Create inserts a new turma and fills in the generated id.
func (r *TurmaRepository) Create(ctx context.Context, turma *models.Turma) error {
	if turma.CriadoEm.IsZero() {
		turma.CriadoEm = time.Now().UTC()
	}
	const query = `INSERT INTO turmas (nome, descricao, professor_id, criado_em) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &turma.ID, query, turma.Nome, turma.Descricao, turma.ProfessorID, turma.CriadoEm); err != nil {
		return fmt.Errorf("create turma: %w", err)
	}
	return nil
}

// FindByID returns a turma by identifier.
func (r *TurmaRepository) FindByID(ctx context.Context, id int64) (*models.Turma, error) {
	const query = `SELECT id, nome, descricao, professor_id, criado_em FROM turmas WHERE id = $1 LIMIT 1`
	var turma models.Turma
	if err := r.db.GetContext(ctx, &turma, query, id); err != nil {
		return nil, err
	}
	return &turma, nil
}

// List returns turmas, optionally restricted to one professor.
func (r *TurmaRepository) List(ctx context.Context, professorID *int64) ([]models.Turma, error) {
	var turmas []models.Turma
	if professorID != nil {
		const query = `SELECT id, nome, descricao, professor_id, criado_em FROM turmas WHERE professor_id = $1 ORDER BY criado_em DESC`
		if err := r.db.SelectContext(ctx, &turmas, query, *professorID); err != nil {
			return nil, fmt.Errorf("list turmas by professor: %w", err)
		}
		return turmas, nil
	}
	const query = `SELECT id, nome, descricao, professor_id, criado_em FROM turmas ORDER BY criado_em DESC`
	if err := r.db.SelectContext(ctx, &turmas, query); err != nil {
		return nil, fmt.Errorf("list turmas: %w", err)
	}
	return turmas, nil
}

// ListByAluno returns the turmas the student is enrolled in.
func (r *TurmaRepository) ListByAluno(ctx context.Context, alunoID int64) ([]models.Turma, error) {
	const query = `SELECT t.id, t.nome, t.descricao, t.professor_id, t.criado_em
FROM turmas t
JOIN alunos_turmas at ON at.turma_id = t.id
WHERE at.aluno_id = $1
ORDER BY t.criado_em DESC`
	var turmas []models.Turma
	if err := r.db.SelectContext(ctx, &turmas, query, alunoID); err != nil {
		return nil, fmt.Errorf("list turmas by aluno: %w", err)
	}
	return turmas, nil
}

// AddAluno enrolls a student into a turma; re-enrolling is a no-op.
func (r *TurmaRepository) AddAluno(ctx context.Context, alunoID, turmaID int64) error {
	const query = `INSERT INTO alunos_turmas (aluno_id, turma_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, alunoID, turmaID); err != nil {
		return fmt.Errorf("add aluno to turma: %w", err)
	}
	return nil
}

// HasAluno reports whether the student is enrolled in the turma.
func (r *TurmaRepository) HasAluno(ctx context.Context, alunoID, turmaID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM alunos_turmas WHERE aluno_id = $1 AND turma_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, alunoID, turmaID); err != nil {
		return false, fmt.Errorf("check turma membership: %w", err)
	}
	return exists, nil
}

// AddMonitor assigns a monitor to a turma.
func (r *TurmaRepository) AddMonitor(ctx context.Context, monitorID, turmaID int64) error {
	const query = `INSERT INTO monitores_turmas (monitor_id, turma_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, monitorID, turmaID); err != nil {
		return fmt.Errorf("add monitor to turma: %w", err)
	}
	return nil
}

// ListAlunos returns the enrolled students of a turma as composite records.
func (r *TurmaRepository) ListAlunos(ctx context.Context, turmaID int64) ([]models.AlunoCompleto, error) {
	query := fmt.Sprintf(`SELECT %s %s
JOIN alunos_turmas at ON at.aluno_id = u.id AND at.turma_id = $1
WHERE u.tipo = 'aluno'
GROUP BY u.id, d.aluno_id
ORDER BY u.nome`, alunoColumns, alunoJoins)
	var rows []alunoRow
	if err := r.db.SelectContext(ctx, &rows, query, turmaID); err != nil {
		return nil, fmt.Errorf("list alunos of turma: %w", err)
	}
	alunos := make([]models.AlunoCompleto, 0, len(rows))
	for _, row := range rows {
		alunos = append(alunos, row.toAlunoCompleto())
	}
	return alunos, nil
}

// CountAll returns the number of turmas rows.
func (r *TurmaRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM turmas`); err != nil {
		return 0, fmt.Errorf("count turmas: %w", err)
	}
	return total, nil
}

// DeleteAll removes all turmas and, via cascade, their membership rows.
// Bulk test-data teardown only.
func (r *TurmaRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM turmas`); err != nil {
		return fmt.Errorf("delete turmas: %w", err)
	}
	return nil
}
