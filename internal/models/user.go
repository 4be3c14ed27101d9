package models

import "time"

// UserRole is the closed set of roles known to the system.
type UserRole string

const (
	RoleAluno     UserRole = "aluno"
	RoleProfessor UserRole = "professor"
	RoleMonitor   UserRole = "monitor"
)

// Valid reports whether the role belongs to the closed set.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAluno, RoleProfessor, RoleMonitor:
		return true
	}
	return false
}

// Usuario represents a registered person stored in the usuarios table.
// The RA is the human-entered registration code; it is unique and immutable
// once assigned. Email is only present for accounts created through sign-up;
// roster entries created by a professor carry no credentials, just the
// placeholder hash marker.
type Usuario struct {
	ID        int64     `db:"id" json:"id"`
	RA        string    `db:"ra" json:"ra"`
	Nome      string    `db:"nome" json:"nome"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Tipo      UserRole  `db:"tipo" json:"tipo"`
	SenhaHash string    `db:"senha_hash" json:"-"`
	CriadoEm  time.Time `db:"criado_em" json:"criado_em"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
