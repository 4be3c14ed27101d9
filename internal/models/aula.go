package models

import "time"

// Aula is one scheduled session of a Turma. The QR token is an opaque random
// string used by the QR check-in flow; collisions are treated as negligible.
type Aula struct {
	ID       int64     `db:"id" json:"id"`
	TurmaID  int64     `db:"turma_id" json:"turma_id"`
	DataHora time.Time `db:"data_hora" json:"data_hora"`
	QRToken  string    `db:"qr_token" json:"qr_token"`
	CriadoEm time.Time `db:"criado_em" json:"criado_em"`
}
