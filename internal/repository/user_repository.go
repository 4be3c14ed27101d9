package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

// UserRepository provides database access for usuarios and refresh tokens.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByRA returns a usuario by registration code.
func (r *UserRepository) FindByRA(ctx context.Context, ra string) (*models.Usuario, error) {
	const query = `SELECT id, ra, nome, email, tipo, senha_hash, criado_em FROM usuarios WHERE ra = $1 LIMIT 1`
	var user models.Usuario
	if err := r.db.GetContext(ctx, &user, query, ra); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find usuario by ra: %w", err)
	}
	return &user, nil
}

// FindByID returns a usuario by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.Usuario, error) {
	const query = `SELECT id, ra, nome, email, tipo, senha_hash, criado_em FROM usuarios WHERE id = $1 LIMIT 1`
	var user models.Usuario
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find usuario by id: %w", err)
	}
	return &user, nil
}

// FindByEmail returns a usuario by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	const query = `SELECT id, ra, nome, email, tipo, senha_hash, criado_em FROM usuarios WHERE email = $1 LIMIT 1`
	var user models.Usuario
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find usuario by email: %w", err)
	}
	return &user, nil
}

// ListByTipo returns all usuarios with the given role.
func (r *UserRepository) ListByTipo(ctx context.Context, tipo models.UserRole) ([]models.Usuario, error) {
	const query = `SELECT id, ra, nome, email, tipo, senha_hash, criado_em FROM usuarios WHERE tipo = $1 ORDER BY nome`
	var users []models.Usuario
	if err := r.db.SelectContext(ctx, &users, query, tipo); err != nil {
		return nil, fmt.Errorf("list usuarios by tipo: %w", err)
	}
	return users, nil
}

// Create inserts a new usuario and fills in the generated id.
func (r *UserRepository) Create(ctx context.Context, user *models.Usuario) error {
	if user.CriadoEm.IsZero() {
		user.CriadoEm = time.Now().UTC()
	}
	const query = `INSERT INTO usuarios (ra, nome, email, tipo, senha_hash, criado_em) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &user.ID, query, user.RA, user.Nome, user.Email, user.Tipo, user.SenhaHash, user.CriadoEm); err != nil {
		return fmt.Errorf("create usuario: %w", err)
	}
	return nil
}

// Update rewrites mutable fields of a usuario. The RA itself never changes.
func (r *UserRepository) Update(ctx context.Context, user *models.Usuario) error {
	const query = `UPDATE usuarios SET nome = :nome, email = :email, tipo = :tipo, senha_hash = :senha_hash WHERE ra = :ra`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update usuario: %w", err)
	}
	return nil
}

// CountAll returns the number of usuarios rows.
func (r *UserRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM usuarios`); err != nil {
		return 0, fmt.Errorf("count usuarios: %w", err)
	}
	return total, nil
}

// DeleteAll removes every usuario. Bulk test-data teardown only.
func (r *UserRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM usuarios`); err != nil {
		return fmt.Errorf("delete usuarios: %w", err)
	}
	return nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at) VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
