package models

import "time"

// Turma is a class group owned by exactly one professor.
type Turma struct {
	ID          int64     `db:"id" json:"id"`
	Nome        string    `db:"nome" json:"nome"`
	Descricao   *string   `db:"descricao" json:"descricao,omitempty"`
	ProfessorID int64     `db:"professor_id" json:"professor_id"`
	CriadoEm    time.Time `db:"criado_em" json:"criado_em"`
}

// AlunoTurma is the student ↔ turma roster membership row.
type AlunoTurma struct {
	AlunoID int64 `db:"aluno_id" json:"aluno_id"`
	TurmaID int64 `db:"turma_id" json:"turma_id"`
}

// MonitorTurma assigns a monitor to a turma.
type MonitorTurma struct {
	MonitorID int64 `db:"monitor_id" json:"monitor_id"`
	TurmaID   int64 `db:"turma_id" json:"turma_id"`
}
