package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

const alunoColumns = `u.id, u.ra, u.nome, u.email, u.tipo, u.senha_hash, u.criado_em,
       d.aluno_id AS detalhe_id, d.faixa, d.peso, d.altura, d.tempo_pratica,
       COUNT(p.id) AS total_presencas`

const alunoJoins = `FROM usuarios u
LEFT JOIN alunos_detalhes d ON d.aluno_id = u.id
LEFT JOIN presencas p ON p.aluno_id = u.id`

// alunoRow is the scan target for the roster join; detail columns are
// nullable because the detail write can trail the user write.
type alunoRow struct {
	models.Usuario
	DetalheID      sql.NullInt64   `db:"detalhe_id"`
	Faixa          sql.NullString  `db:"faixa"`
	Peso           sql.NullFloat64 `db:"peso"`
	Altura         sql.NullInt64   `db:"altura"`
	TempoPratica   sql.NullInt64   `db:"tempo_pratica"`
	TotalPresencas int             `db:"total_presencas"`
}

func (row alunoRow) toAlunoCompleto() models.AlunoCompleto {
	aluno := models.AlunoCompleto{Usuario: row.Usuario, TotalPresencas: row.TotalPresencas}
	if row.DetalheID.Valid {
		det := &models.AlunoDetalhes{
			AlunoID: row.DetalheID.Int64,
			Faixa:   models.Faixa(row.Faixa.String),
		}
		if row.Peso.Valid {
			v := row.Peso.Float64
			det.Peso = &v
		}
		if row.Altura.Valid {
			v := int(row.Altura.Int64)
			det.Altura = &v
		}
		if row.TempoPratica.Valid {
			v := int(row.TempoPratica.Int64)
			det.TempoPratica = &v
		}
		aluno.Detalhes = det
	}
	return aluno
}

// StudentRepository is the primary (Postgres) roster backend.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns every student as a composite record with attendance counts.
func (r *StudentRepository) List(ctx context.Context) ([]models.AlunoCompleto, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE u.tipo = 'aluno' GROUP BY u.id, d.aluno_id ORDER BY u.nome`, alunoColumns, alunoJoins)
	var rows []alunoRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list alunos: %w", err)
	}
	alunos := make([]models.AlunoCompleto, 0, len(rows))
	for _, row := range rows {
		alunos = append(alunos, row.toAlunoCompleto())
	}
	return alunos, nil
}

// FindByRA returns the composite student record for the given RA.
func (r *StudentRepository) FindByRA(ctx context.Context, ra string) (*models.AlunoCompleto, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE u.ra = $1 AND u.tipo = 'aluno' GROUP BY u.id, d.aluno_id LIMIT 1`, alunoColumns, alunoJoins)
	var row alunoRow
	if err := r.db.GetContext(ctx, &row, query, ra); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find aluno by ra: %w", err)
	}
	aluno := row.toAlunoCompleto()
	return &aluno, nil
}

// Upsert saves a composite student record keyed by RA: the user row is
// updated when present or inserted otherwise, then the detail row is
// upserted. The two writes are sequential, not one transaction; a failure
// in between leaves a user without details.
func (r *StudentRepository) Upsert(ctx context.Context, aluno *models.AlunoCompleto) (*models.AlunoCompleto, error) {
	var existingID int64
	err := r.db.GetContext(ctx, &existingID, `SELECT id FROM usuarios WHERE ra = $1`, aluno.RA)
	switch {
	case err == sql.ErrNoRows:
		if aluno.CriadoEm.IsZero() {
			aluno.CriadoEm = time.Now().UTC()
		}
		const insert = `INSERT INTO usuarios (ra, nome, email, tipo, senha_hash, criado_em) VALUES ($1, $2, $3, 'aluno', $4, $5) RETURNING id`
		if err := r.db.GetContext(ctx, &aluno.ID, insert, aluno.RA, aluno.Nome, aluno.Email, aluno.SenhaHash, aluno.CriadoEm); err != nil {
			return nil, fmt.Errorf("insert aluno: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("lookup aluno by ra: %w", err)
	default:
		aluno.ID = existingID
		const update = `UPDATE usuarios SET nome = $2 WHERE id = $1`
		if _, err := r.db.ExecContext(ctx, update, existingID, aluno.Nome); err != nil {
			return nil, fmt.Errorf("update aluno: %w", err)
		}
	}

	if aluno.Detalhes != nil {
		aluno.Detalhes.AlunoID = aluno.ID
		const upsertDet = `INSERT INTO alunos_detalhes (aluno_id, faixa, peso, altura, tempo_pratica)
VALUES (:aluno_id, :faixa, :peso, :altura, :tempo_pratica)
ON CONFLICT (aluno_id) DO UPDATE SET faixa = EXCLUDED.faixa, peso = EXCLUDED.peso, altura = EXCLUDED.altura, tempo_pratica = EXCLUDED.tempo_pratica`
		if _, err := r.db.NamedExecContext(ctx, upsertDet, aluno.Detalhes); err != nil {
			return nil, fmt.Errorf("upsert detalhes: %w", err)
		}
	}

	return r.FindByRA(ctx, aluno.RA)
}

// DeleteAllDetalhes wipes the detail table. Bulk test-data teardown only.
func (r *StudentRepository) DeleteAllDetalhes(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM alunos_detalhes`); err != nil {
		return fmt.Errorf("delete alunos_detalhes: %w", err)
	}
	return nil
}

// CountDetalhes returns the number of detail rows.
func (r *StudentRepository) CountDetalhes(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM alunos_detalhes`); err != nil {
		return 0, fmt.Errorf("count alunos_detalhes: %w", err)
	}
	return total, nil
}
