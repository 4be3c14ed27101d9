package models

import "time"

// Presenca links one student to one aula. The system-wide invariant is at
// most one row per (aula_id, aluno_id) pair, enforced by the attendance
// service's check-then-insert.
type Presenca struct {
	ID            int64     `db:"id" json:"id"`
	AulaID        int64     `db:"aula_id" json:"aula_id"`
	AlunoID       int64     `db:"aluno_id" json:"aluno_id"`
	RegistradaPor int64     `db:"registrada_por" json:"registrada_por"`
	Horario       time.Time `db:"horario" json:"horario"`
}
