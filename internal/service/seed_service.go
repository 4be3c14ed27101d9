package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
)

// SeedQRToken is the fixed token of the seeded example aula, so a printed QR
// code can be reused across resets.
const SeedQRToken = "EXEMPLO_QR_TOKEN_123"

type seedUserRepository interface {
	FindByRA(ctx context.Context, ra string) (*models.Usuario, error)
	Create(ctx context.Context, user *models.Usuario) error
	CountAll(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type seedStudentRepository interface {
	Upsert(ctx context.Context, aluno *models.AlunoCompleto) (*models.AlunoCompleto, error)
	CountDetalhes(ctx context.Context) (int, error)
	DeleteAllDetalhes(ctx context.Context) error
}

type seedTurmaRepository interface {
	Create(ctx context.Context, turma *models.Turma) error
	List(ctx context.Context, professorID *int64) ([]models.Turma, error)
	AddAluno(ctx context.Context, alunoID, turmaID int64) error
	AddMonitor(ctx context.Context, monitorID, turmaID int64) error
	CountAll(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type seedAulaRepository interface {
	Create(ctx context.Context, aula *models.Aula) error
	FindByToken(ctx context.Context, token string) (*models.Aula, error)
	CountAll(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type seedPresencaRepository interface {
	FindByAulaAndAluno(ctx context.Context, aulaID, alunoID int64) ([]models.Presenca, error)
	Insert(ctx context.Context, presenca *models.Presenca) error
	CountAll(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// SeedCounts reports row totals after a seed or clear run.
type SeedCounts struct {
	Usuarios  int
	Detalhes  int
	Turmas    int
	Aulas     int
	Presencas int
}

// SeedService loads and removes the example dataset used for manual testing.
// Seeding is idempotent: existing rows are reused, never duplicated.
type SeedService struct {
	users     seedUserRepository
	students  seedStudentRepository
	turmas    seedTurmaRepository
	aulas     seedAulaRepository
	presencas seedPresencaRepository
	logger    *zap.Logger
}

// NewSeedService constructs the seed service.
func NewSeedService(users seedUserRepository, students seedStudentRepository, turmas seedTurmaRepository, aulas seedAulaRepository, presencas seedPresencaRepository, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{users: users, students: students, turmas: turmas, aulas: aulas, presencas: presencas, logger: logger}
}

type seedAluno struct {
	ra           string
	nome         string
	email        string
	faixa        models.Faixa
	peso         float64
	altura       int
	tempoPratica int
}

// Seed loads the example dataset: five usuarios (three alunos with detail
// rows, one professor, one monitor), one turma with the three alunos
// enrolled, one aula with a fixed QR token and two presencas.
func (s *SeedService) Seed(ctx context.Context) (*SeedCounts, error) {
	alunosFixture := []seedAluno{
		{ra: "2024001", nome: "Joao Silva", email: "joao.silva@example.com", faixa: models.FaixaBranca, peso: 75.5, altura: 178, tempoPratica: 6},
		{ra: "2024002", nome: "Maria Santos", email: "maria.santos@example.com", faixa: models.FaixaAzul, peso: 62.0, altura: 165, tempoPratica: 24},
		{ra: "2024003", nome: "Pedro Oliveira", email: "pedro.oliveira@example.com", faixa: models.FaixaRoxa, peso: 84.3, altura: 182, tempoPratica: 48},
	}

	alunoIDs := make([]int64, 0, len(alunosFixture))
	for _, fixture := range alunosFixture {
		email := fixture.email
		peso, altura, tempo := fixture.peso, fixture.altura, fixture.tempoPratica
		saved, err := s.students.Upsert(ctx, &models.AlunoCompleto{
			Usuario: models.Usuario{
				RA:    fixture.ra,
				Nome:  fixture.nome,
				Email: &email,
				Tipo:  models.RoleAluno,
			},
			Detalhes: &models.AlunoDetalhes{
				Faixa:        fixture.faixa,
				Peso:         &peso,
				Altura:       &altura,
				TempoPratica: &tempo,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("seed aluno %s: %w", fixture.ra, err)
		}
		alunoIDs = append(alunoIDs, saved.ID)
	}

	professor, err := s.ensureUser(ctx, "PROF001", "Carlos Mendes", "carlos.mendes@example.com", models.RoleProfessor)
	if err != nil {
		return nil, err
	}
	monitor, err := s.ensureUser(ctx, "MON001", "Ana Costa", "ana.costa@example.com", models.RoleMonitor)
	if err != nil {
		return nil, err
	}

	turma, err := s.ensureTurma(ctx, "Jiu-Jitsu Iniciante", "Turma para alunos iniciantes", professor.ID)
	if err != nil {
		return nil, err
	}

	for _, alunoID := range alunoIDs {
		if err := s.turmas.AddAluno(ctx, alunoID, turma.ID); err != nil {
			return nil, fmt.Errorf("seed turma membership: %w", err)
		}
	}
	if err := s.turmas.AddMonitor(ctx, monitor.ID, turma.ID); err != nil {
		return nil, fmt.Errorf("seed monitor assignment: %w", err)
	}

	aula, err := s.aulas.FindByToken(ctx, SeedQRToken)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("seed aula lookup: %w", err)
		}
		aula = &models.Aula{TurmaID: turma.ID, QRToken: SeedQRToken}
		if err := s.aulas.Create(ctx, aula); err != nil {
			return nil, fmt.Errorf("seed aula: %w", err)
		}
	}

	for _, alunoID := range alunoIDs[:2] {
		existing, err := s.presencas.FindByAulaAndAluno(ctx, aula.ID, alunoID)
		if err != nil {
			return nil, fmt.Errorf("seed presenca lookup: %w", err)
		}
		if len(existing) > 0 {
			continue
		}
		presenca := &models.Presenca{AulaID: aula.ID, AlunoID: alunoID, RegistradaPor: professor.ID}
		if err := s.presencas.Insert(ctx, presenca); err != nil {
			return nil, fmt.Errorf("seed presenca: %w", err)
		}
	}

	s.logger.Info("seed completed", zap.Int64("turma_id", turma.ID), zap.String("qr_token", SeedQRToken))
	return s.Counts(ctx)
}

// Clear removes the whole dataset, children first.
func (s *SeedService) Clear(ctx context.Context) (*SeedCounts, error) {
	if err := s.presencas.DeleteAll(ctx); err != nil {
		return nil, err
	}
	if err := s.aulas.DeleteAll(ctx); err != nil {
		return nil, err
	}
	if err := s.students.DeleteAllDetalhes(ctx); err != nil {
		return nil, err
	}
	if err := s.turmas.DeleteAll(ctx); err != nil {
		return nil, err
	}
	if err := s.users.DeleteAll(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("clear completed")
	return s.Counts(ctx)
}

// Reset clears everything and reloads the example dataset.
func (s *SeedService) Reset(ctx context.Context) (*SeedCounts, error) {
	if _, err := s.Clear(ctx); err != nil {
		return nil, err
	}
	return s.Seed(ctx)
}

// Counts reports the row totals across the seeded tables.
func (s *SeedService) Counts(ctx context.Context) (*SeedCounts, error) {
	counts := &SeedCounts{}
	var err error
	if counts.Usuarios, err = s.users.CountAll(ctx); err != nil {
		return nil, err
	}
	if counts.Detalhes, err = s.students.CountDetalhes(ctx); err != nil {
		return nil, err
	}
	if counts.Turmas, err = s.turmas.CountAll(ctx); err != nil {
		return nil, err
	}
	if counts.Aulas, err = s.aulas.CountAll(ctx); err != nil {
		return nil, err
	}
	if counts.Presencas, err = s.presencas.CountAll(ctx); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *SeedService) ensureUser(ctx context.Context, ra, nome, email string, tipo models.UserRole) (*models.Usuario, error) {
	existing, err := s.users.FindByRA(ctx, ra)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("seed usuario lookup %s: %w", ra, err)
	}
	user := &models.Usuario{RA: ra, Nome: nome, Email: &email, Tipo: tipo}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("seed usuario %s: %w", ra, err)
	}
	return user, nil
}

func (s *SeedService) ensureTurma(ctx context.Context, nome, descricao string, professorID int64) (*models.Turma, error) {
	turmas, err := s.turmas.List(ctx, &professorID)
	if err != nil {
		return nil, fmt.Errorf("seed turma lookup: %w", err)
	}
	for i := range turmas {
		if turmas[i].Nome == nome {
			return &turmas[i], nil
		}
	}
	desc := descricao
	turma := &models.Turma{Nome: nome, Descricao: &desc, ProfessorID: professorID}
	if err := s.turmas.Create(ctx, turma); err != nil {
		return nil, fmt.Errorf("seed turma: %w", err)
	}
	return turma, nil
}
