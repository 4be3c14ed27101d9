package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

// AulaRepository provides database access for class sessions.
type AulaRepository struct {
	db *sqlx.DB
}

// NewAulaRepository creates a new instance of AulaRepository.
func NewAulaRepository(db *sqlx.DB) *AulaRepository {
	return &AulaRepository{db: db}
}

// Create inserts a new aula and fills in the generated id.
func (r *AulaRepository) Create(ctx context.Context, aula *models.Aula) error {
	now := time.Now().UTC()
	if aula.DataHora.IsZero() {
		aula.DataHora = now
	}
	if aula.CriadoEm.IsZero() {
		aula.CriadoEm = now
	}
	const query = `INSERT INTO aulas (turma_id, data_hora, qr_token, criado_em) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &aula.ID, query, aula.TurmaID, aula.DataHora, aula.QRToken, aula.CriadoEm); err != nil {
		return fmt.Errorf("create aula: %w", err)
	}
	return nil
}

// FindByID returns an aula by identifier.
func (r *AulaRepository) FindByID(ctx context.Context, id int64) (*models.Aula, error) {
	const query = `SELECT id, turma_id, data_hora, qr_token, criado_em FROM aulas WHERE id = $1 LIMIT 1`
	var aula models.Aula
	if err := r.db.GetContext(ctx, &aula, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find aula by id: %w", err)
	}
	return &aula, nil
}

// FindByToken resolves an aula from a scanned QR token.
func (r *AulaRepository) FindByToken(ctx context.Context, token string) (*models.Aula, error) {
	const query = `SELECT id, turma_id, data_hora, qr_token, criado_em FROM aulas WHERE qr_token = $1 LIMIT 1`
	var aula models.Aula
	if err := r.db.GetContext(ctx, &aula, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find aula by token: %w", err)
	}
	return &aula, nil
}

// ListByTurma returns the sessions of a turma, most recent first.
func (r *AulaRepository) ListByTurma(ctx context.Context, turmaID int64) ([]models.Aula, error) {
	const query = `SELECT id, turma_id, data_hora, qr_token, criado_em FROM aulas WHERE turma_id = $1 ORDER BY data_hora DESC`
	var aulas []models.Aula
	if err := r.db.SelectContext(ctx, &aulas, query, turmaID); err != nil {
		return nil, fmt.Errorf("list aulas: %w", err)
	}
	return aulas, nil
}

// MostRecentByTurma returns the latest aula of a turma, or nil when the
// turma has no sessions yet.
func (r *AulaRepository) MostRecentByTurma(ctx context.Context, turmaID int64) (*models.Aula, error) {
	const query = `SELECT id, turma_id, data_hora, qr_token, criado_em FROM aulas WHERE turma_id = $1 ORDER BY data_hora DESC LIMIT 1`
	var aula models.Aula
	if err := r.db.GetContext(ctx, &aula, query, turmaID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("most recent aula: %w", err)
	}
	return &aula, nil
}

// CountAll returns the number of aulas rows.
func (r *AulaRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM aulas`); err != nil {
		return 0, fmt.Errorf("count aulas: %w", err)
	}
	return total, nil
}

// DeleteAll removes every aula. Bulk test-data teardown only.
func (r *AulaRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM aulas`); err != nil {
		return fmt.Errorf("delete aulas: %w", err)
	}
	return nil
}
