package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

const (
	localStudentsKey    = "jj-students"
	localAttendancesKey = "jj-attendances"
)

// LocalRosterStore is the fallback roster backend: a JSON key-value store on
// local disk mirroring the legacy client-side cache. It is process-local and
// deliberately never reconciled with the primary store.
type LocalRosterStore struct {
	dir string
	mu  sync.Mutex
}

// NewLocalRosterStore ensures the data directory exists and returns a handle.
func NewLocalRosterStore(dir string) (*LocalRosterStore, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fallback store directory: %w", err)
	}
	return &LocalRosterStore{dir: dir}, nil
}

// List returns every student currently in the local store.
func (s *LocalRosterStore) List(ctx context.Context) ([]models.AlunoCompleto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents()
	if err != nil {
		return nil, err
	}
	alunos := make([]models.AlunoCompleto, 0, len(students))
	for _, ls := range students {
		alunos = append(alunos, localToAluno(ls))
	}
	return alunos, nil
}

// FindByRA returns the locally cached student for the given RA, or
// sql.ErrNoRows so callers can treat both backends uniformly.
func (s *LocalRosterStore) FindByRA(ctx context.Context, ra string) (*models.AlunoCompleto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents()
	if err != nil {
		return nil, err
	}
	for _, ls := range students {
		if ls.RA == ra {
			aluno := localToAluno(ls)
			return &aluno, nil
		}
	}
	return nil, sql.ErrNoRows
}

// Upsert saves a student keyed by RA, replacing the existing entry or
// appending a new one with a generated id.
func (s *LocalRosterStore) Upsert(ctx context.Context, aluno *models.AlunoCompleto) (*models.AlunoCompleto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents()
	if err != nil {
		return nil, err
	}

	record := alunoToLocal(*aluno)
	replaced := false
	for i, ls := range students {
		if ls.RA == record.RA {
			record.ID = ls.ID
			if record.AttendanceCount == 0 {
				record.AttendanceCount = ls.AttendanceCount
			}
			students[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		if record.ID == 0 {
			record.ID = time.Now().UnixNano()
		}
		students = append(students, record)
	}

	if err := s.save(localStudentsKey, students); err != nil {
		return nil, err
	}
	saved := localToAluno(record)
	return &saved, nil
}

// RecordAttendance bumps the cached attendance count for the RA and appends
// an attendance entry. Returns false when the RA is not in the local store.
func (s *LocalRosterStore) RecordAttendance(ctx context.Context, ra string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.loadStudents()
	if err != nil {
		return false, err
	}

	found := false
	for i, ls := range students {
		if ls.RA == ra {
			students[i].AttendanceCount++
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	if err := s.save(localStudentsKey, students); err != nil {
		return false, err
	}

	attendances, err := s.loadAttendances()
	if err != nil {
		return false, err
	}
	attendances = append(attendances, models.LocalAttendance{
		ID:        uuid.NewString(),
		StudentRA: ra,
		Date:      time.Now().UTC().Format(time.RFC3339),
	})
	if err := s.save(localAttendancesKey, attendances); err != nil {
		return false, err
	}
	return true, nil
}

// Attendances returns the locally recorded attendance entries.
func (s *LocalRosterStore) Attendances(ctx context.Context) ([]models.LocalAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAttendances()
}

func (s *LocalRosterStore) loadStudents() ([]models.LocalStudent, error) {
	var students []models.LocalStudent
	if err := s.load(localStudentsKey, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (s *LocalRosterStore) loadAttendances() ([]models.LocalAttendance, error) {
	var attendances []models.LocalAttendance
	if err := s.load(localAttendancesKey, &attendances); err != nil {
		return nil, err
	}
	return attendances, nil
}

func (s *LocalRosterStore) load(key string, dest interface{}) error {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *LocalRosterStore) save(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *LocalRosterStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func localToAluno(ls models.LocalStudent) models.AlunoCompleto {
	det := &models.AlunoDetalhes{
		AlunoID:      ls.ID,
		Faixa:        models.FaixaFromBelt(ls.Belt),
		Peso:         ls.Weight,
		Altura:       ls.Height,
		TempoPratica: ls.PracticeDays,
	}
	return models.AlunoCompleto{
		Usuario: models.Usuario{
			ID:   ls.ID,
			RA:   ls.RA,
			Nome: ls.Name,
			Tipo: models.RoleAluno,
		},
		Detalhes:       det,
		TotalPresencas: ls.AttendanceCount,
	}
}

func alunoToLocal(aluno models.AlunoCompleto) models.LocalStudent {
	ls := models.LocalStudent{
		ID:              aluno.ID,
		RA:              aluno.RA,
		Name:            aluno.Nome,
		Belt:            models.FaixaBranca.BeltName(),
		AttendanceCount: aluno.TotalPresencas,
	}
	if aluno.Detalhes != nil {
		ls.Belt = aluno.Detalhes.Faixa.BeltName()
		ls.Weight = aluno.Detalhes.Peso
		ls.Height = aluno.Detalhes.Altura
		ls.PracticeDays = aluno.Detalhes.TempoPratica
	}
	return ls
}
