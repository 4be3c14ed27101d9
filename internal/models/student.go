package models

// Faixa is the ordinal belt rank tracked per student.
type Faixa string

const (
	FaixaBranca Faixa = "Branca"
	FaixaAzul   Faixa = "Azul"
	FaixaRoxa   Faixa = "Roxa"
	FaixaMarrom Faixa = "Marrom"
	FaixaPreta  Faixa = "Preta"
)

var faixaOrder = map[Faixa]int{
	FaixaBranca: 0,
	FaixaAzul:   1,
	FaixaRoxa:   2,
	FaixaMarrom: 3,
	FaixaPreta:  4,
}

// Ordinal returns the rank position (Branca lowest). Unknown values map to -1.
func (f Faixa) Ordinal() int {
	if ord, ok := faixaOrder[f]; ok {
		return ord
	}
	return -1
}

// Valid reports whether the belt belongs to the closed rank set.
func (f Faixa) Valid() bool {
	_, ok := faixaOrder[f]
	return ok
}

// Legacy belt naming used by the local fallback store.
var faixaToBelt = map[Faixa]string{
	FaixaBranca: "white",
	FaixaAzul:   "blue",
	FaixaRoxa:   "purple",
	FaixaMarrom: "brown",
	FaixaPreta:  "black",
}

var beltToFaixa = map[string]Faixa{
	"white":  FaixaBranca,
	"blue":   FaixaAzul,
	"purple": FaixaRoxa,
	"brown":  FaixaMarrom,
	"black":  FaixaPreta,
}

// BeltName converts a Faixa into the legacy lowercase belt name.
func (f Faixa) BeltName() string {
	if belt, ok := faixaToBelt[f]; ok {
		return belt
	}
	return "white"
}

// FaixaFromBelt converts a legacy belt name back into a Faixa.
func FaixaFromBelt(belt string) Faixa {
	if f, ok := beltToFaixa[belt]; ok {
		return f
	}
	return FaixaBranca
}

// AlunoDetalhes holds the physical/training profile owned one-to-one by a
// student Usuario. Written together with the user row, but not atomically.
type AlunoDetalhes struct {
	AlunoID      int64    `db:"aluno_id" json:"aluno_id"`
	Faixa        Faixa    `db:"faixa" json:"faixa"`
	Peso         *float64 `db:"peso" json:"peso,omitempty"`
	Altura       *int     `db:"altura" json:"altura,omitempty"`
	TempoPratica *int     `db:"tempo_pratica" json:"tempo_pratica,omitempty"`
}

// AlunoCompleto is the composite roster record: user row, optional detail row
// and the computed attendance count.
type AlunoCompleto struct {
	Usuario
	Detalhes       *AlunoDetalhes `json:"detalhes,omitempty"`
	TotalPresencas int            `json:"total_presencas"`
}

// RosterSource tags which backend served a roster operation.
type RosterSource string

const (
	SourcePrimary  RosterSource = "primary"
	SourceFallback RosterSource = "fallback"
)

// LocalStudent is the record shape persisted under the jj-students key of the
// local fallback store. It mirrors the legacy client-side cache layout.
type LocalStudent struct {
	ID              int64    `json:"id"`
	RA              string   `json:"ra"`
	Name            string   `json:"name"`
	Belt            string   `json:"belt"`
	AttendanceCount int      `json:"attendanceCount"`
	Weight          *float64 `json:"weight,omitempty"`
	Height          *int     `json:"height,omitempty"`
	PracticeDays    *int     `json:"practiceDays,omitempty"`
}

// LocalAttendance is the record shape persisted under the jj-attendances key.
type LocalAttendance struct {
	ID        string `json:"id"`
	StudentRA string `json:"studentRA"`
	Date      string `json:"date"`
}
