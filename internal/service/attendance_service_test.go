package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
)

type fakePresencaRepo struct {
	presencas []models.Presenca
	nextID    int64
}

func (f *fakePresencaRepo) FindByAulaAndAluno(ctx context.Context, aulaID, alunoID int64) ([]models.Presenca, error) {
	var found []models.Presenca
	for _, p := range f.presencas {
		if p.AulaID == aulaID && p.AlunoID == alunoID {
			found = append(found, p)
		}
	}
	return found, nil
}

func (f *fakePresencaRepo) Insert(ctx context.Context, presenca *models.Presenca) error {
	f.nextID++
	presenca.ID = f.nextID
	f.presencas = append(f.presencas, *presenca)
	return nil
}

func (f *fakePresencaRepo) ListByAluno(ctx context.Context, alunoID int64) ([]models.Presenca, error) {
	var found []models.Presenca
	for _, p := range f.presencas {
		if p.AlunoID == alunoID {
			found = append(found, p)
		}
	}
	return found, nil
}

func (f *fakePresencaRepo) CountByAluno(ctx context.Context, alunoID int64) (int, error) {
	found, _ := f.ListByAluno(ctx, alunoID)
	return len(found), nil
}

type fakeAulaRepo struct {
	aulas []models.Aula
}

func (f *fakeAulaRepo) FindByID(ctx context.Context, id int64) (*models.Aula, error) {
	for i := range f.aulas {
		if f.aulas[i].ID == id {
			return &f.aulas[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAulaRepo) FindByToken(ctx context.Context, token string) (*models.Aula, error) {
	for i := range f.aulas {
		if f.aulas[i].QRToken == token {
			return &f.aulas[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAulaRepo) MostRecentByTurma(ctx context.Context, turmaID int64) (*models.Aula, error) {
	var latest *models.Aula
	for i := range f.aulas {
		if f.aulas[i].TurmaID != turmaID {
			continue
		}
		if latest == nil || f.aulas[i].DataHora.After(latest.DataHora) {
			latest = &f.aulas[i]
		}
	}
	return latest, nil
}

type fakeTurmaMembership struct {
	memberships map[int64][]int64 // aluno id -> turma ids
	turmas      map[int64]models.Turma
}

func (f *fakeTurmaMembership) HasAluno(ctx context.Context, alunoID, turmaID int64) (bool, error) {
	for _, id := range f.memberships[alunoID] {
		if id == turmaID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTurmaMembership) ListByAluno(ctx context.Context, alunoID int64) ([]models.Turma, error) {
	var turmas []models.Turma
	for _, id := range f.memberships[alunoID] {
		turmas = append(turmas, f.turmas[id])
	}
	return turmas, nil
}

type fakeUserLookup struct {
	users map[string]models.Usuario
}

func (f *fakeUserLookup) FindByRA(ctx context.Context, ra string) (*models.Usuario, error) {
	if u, ok := f.users[ra]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserLookup) ListByTipo(ctx context.Context, tipo models.UserRole) ([]models.Usuario, error) {
	var users []models.Usuario
	for _, u := range f.users {
		if u.Tipo == tipo {
			users = append(users, u)
		}
	}
	return users, nil
}

// unreachableAulaRepo simulates the primary store being down.
type unreachableAulaRepo struct{}

func (unreachableAulaRepo) FindByID(ctx context.Context, id int64) (*models.Aula, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (unreachableAulaRepo) FindByToken(ctx context.Context, token string) (*models.Aula, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (unreachableAulaRepo) MostRecentByTurma(ctx context.Context, turmaID int64) (*models.Aula, error) {
	return nil, errors.New("dial tcp: connection refused")
}

// unreachableUserRepo simulates the usuarios table being unreachable.
type unreachableUserRepo struct{}

func (unreachableUserRepo) FindByRA(ctx context.Context, ra string) (*models.Usuario, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (unreachableUserRepo) ListByTipo(ctx context.Context, tipo models.UserRole) ([]models.Usuario, error) {
	return nil, errors.New("dial tcp: connection refused")
}

type fakeLocalStore struct {
	counts  map[string]int
	entries []models.LocalAttendance
}

func (f *fakeLocalStore) RecordAttendance(ctx context.Context, ra string) (bool, error) {
	if _, ok := f.counts[ra]; !ok {
		return false, nil
	}
	f.counts[ra]++
	f.entries = append(f.entries, models.LocalAttendance{
		ID:        "local-1",
		StudentRA: ra,
		Date:      time.Now().UTC().Format(time.RFC3339),
	})
	return true, nil
}

func (f *fakeLocalStore) Attendances(ctx context.Context) ([]models.LocalAttendance, error) {
	return f.entries, nil
}

func newAttendanceFixture() (*AttendanceService, *fakePresencaRepo) {
	presencas := &fakePresencaRepo{}
	aulas := &fakeAulaRepo{aulas: []models.Aula{
		{ID: 10, TurmaID: 1, QRToken: "tok-abc"},
	}}
	turmas := &fakeTurmaMembership{
		memberships: map[int64][]int64{2: {1}},
		turmas:      map[int64]models.Turma{1: {ID: 1, Nome: "Jiu-Jitsu Iniciante"}},
	}
	users := &fakeUserLookup{users: map[string]models.Usuario{
		"2024001": {ID: 2, RA: "2024001", Nome: "Joao", Tipo: models.RoleAluno},
		"2024002": {ID: 3, RA: "2024002", Nome: "Maria", Tipo: models.RoleAluno},
		"PROF001": {ID: 4, RA: "PROF001", Nome: "Carlos", Tipo: models.RoleProfessor},
	}}
	identity := NewIdentityService(users, nil)
	return NewAttendanceService(presencas, aulas, turmas, identity, nil, nil), presencas
}

func TestRecordCreatesPresenca(t *testing.T) {
	svc, repo := newAttendanceFixture()

	presenca, already, err := svc.Record(context.Background(), 10, 2, 4)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, int64(10), presenca.AulaID)
	assert.Equal(t, int64(2), presenca.AlunoID)
	assert.Equal(t, int64(4), presenca.RegistradaPor)
	assert.Len(t, repo.presencas, 1)
}

func TestRecordIsIdempotent(t *testing.T) {
	svc, repo := newAttendanceFixture()
	ctx := context.Background()

	first, already, err := svc.Record(ctx, 10, 2, 4)
	require.NoError(t, err)
	require.False(t, already)

	second, already, err := svc.Record(ctx, 10, 2, 4)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.presencas, 1)
}

func TestRecordUnknownAula(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, _, err := svc.Record(context.Background(), 99, 2, 4)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordByRAAndToken(t *testing.T) {
	svc, repo := newAttendanceFixture()

	presenca, already, err := svc.RecordByRAAndToken(context.Background(), "2024001", "tok-abc")
	require.NoError(t, err)
	assert.False(t, already)
	// The student checking in via QR is their own recorder.
	assert.Equal(t, presenca.AlunoID, presenca.RegistradaPor)
	assert.Len(t, repo.presencas, 1)
}

func TestRecordByRAAndTokenDuplicate(t *testing.T) {
	svc, repo := newAttendanceFixture()
	ctx := context.Background()

	_, _, err := svc.RecordByRAAndToken(ctx, "2024001", "tok-abc")
	require.NoError(t, err)

	_, already, err := svc.RecordByRAAndToken(ctx, "2024001", "tok-abc")
	require.NoError(t, err)
	assert.True(t, already)
	assert.Len(t, repo.presencas, 1)
}

func TestRecordByRAAndTokenUnknownToken(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, _, err := svc.RecordByRAAndToken(context.Background(), "2024001", "bogus")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordByRAAndTokenRejectsNonStudent(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, _, err := svc.RecordByRAAndToken(context.Background(), "PROF001", "tok-abc")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordSelfService(t *testing.T) {
	svc, repo := newAttendanceFixture()

	presenca, already, err := svc.RecordSelfService(context.Background(), "2024001", 1)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, int64(10), presenca.AulaID)
	assert.Equal(t, presenca.AlunoID, presenca.RegistradaPor)
	assert.Len(t, repo.presencas, 1)
}

func TestRecordSelfServiceRequiresMembership(t *testing.T) {
	svc, repo := newAttendanceFixture()

	_, _, err := svc.RecordSelfService(context.Background(), "2024002", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.presencas)
}

func TestRecordSelfServiceNoAulaYet(t *testing.T) {
	presencas := &fakePresencaRepo{}
	aulas := &fakeAulaRepo{} // turma exists but has never had a session
	turmas := &fakeTurmaMembership{
		memberships: map[int64][]int64{2: {1}},
		turmas:      map[int64]models.Turma{1: {ID: 1}},
	}
	users := &fakeUserLookup{users: map[string]models.Usuario{
		"2024001": {ID: 2, RA: "2024001", Tipo: models.RoleAluno},
	}}
	svc := NewAttendanceService(presencas, aulas, turmas, NewIdentityService(users, nil), nil, nil)

	_, _, err := svc.RecordSelfService(context.Background(), "2024001", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, presencas.presencas)
}

func TestListTurmasForRA(t *testing.T) {
	svc, _ := newAttendanceFixture()

	turmas, err := svc.ListTurmasForRA(context.Background(), "2024001")
	require.NoError(t, err)
	require.Len(t, turmas, 1)
	assert.Equal(t, "Jiu-Jitsu Iniciante", turmas[0].Nome)
}

func newDegradedFixture(local *fakeLocalStore) *AttendanceService {
	turmas := &fakeTurmaMembership{
		memberships: map[int64][]int64{2: {1}},
		turmas:      map[int64]models.Turma{1: {ID: 1}},
	}
	users := &fakeUserLookup{users: map[string]models.Usuario{
		"2024001": {ID: 2, RA: "2024001", Tipo: models.RoleAluno},
	}}
	return NewAttendanceService(&fakePresencaRepo{}, unreachableAulaRepo{}, turmas, NewIdentityService(users, nil), local, nil)
}

func TestRecordByRAAndTokenDegradesToLocalStore(t *testing.T) {
	local := &fakeLocalStore{counts: map[string]int{"2024001": 0}}
	svc := newDegradedFixture(local)

	presenca, already, err := svc.RecordByRAAndToken(context.Background(), "2024001", "tok-abc")
	require.NoError(t, err)
	assert.False(t, already)
	require.NotNil(t, presenca)
	assert.False(t, presenca.Horario.IsZero())
	assert.Equal(t, 1, local.counts["2024001"])
}

func TestRecordSelfServiceDegradesToLocalStore(t *testing.T) {
	local := &fakeLocalStore{counts: map[string]int{"2024001": 0}}
	svc := newDegradedFixture(local)

	presenca, _, err := svc.RecordSelfService(context.Background(), "2024001", 1)
	require.NoError(t, err)
	require.NotNil(t, presenca)
	assert.Equal(t, 1, local.counts["2024001"])
}

func TestDegradeRequiresLocallyKnownStudent(t *testing.T) {
	local := &fakeLocalStore{counts: map[string]int{}}
	svc := newDegradedFixture(local)

	_, _, err := svc.RecordByRAAndToken(context.Background(), "2024001", "tok-abc")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, local.counts)
}

func TestListByRADegradesToLocalHistory(t *testing.T) {
	local := &fakeLocalStore{
		counts: map[string]int{"2024001": 1},
		entries: []models.LocalAttendance{
			{ID: "local-1", StudentRA: "2024001", Date: "2026-08-29T18:00:00Z"},
			{ID: "local-2", StudentRA: "2024999", Date: "2026-08-29T18:05:00Z"},
		},
	}
	svc := NewAttendanceService(&fakePresencaRepo{}, unreachableAulaRepo{}, &fakeTurmaMembership{}, NewIdentityService(unreachableUserRepo{}, nil), local, nil)

	presencas, err := svc.ListByRA(context.Background(), "2024001")
	require.NoError(t, err)
	require.Len(t, presencas, 1)
	assert.Equal(t, 2026, presencas[0].Horario.Year())
}

func TestListByRAWithoutLocalHistorySurfacesOutage(t *testing.T) {
	local := &fakeLocalStore{counts: map[string]int{}}
	svc := NewAttendanceService(&fakePresencaRepo{}, unreachableAulaRepo{}, &fakeTurmaMembership{}, NewIdentityService(unreachableUserRepo{}, nil), local, nil)

	_, err := svc.ListByRA(context.Background(), "2024001")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBackendUnavailable.Code, appErrors.FromError(err).Code)
}

func TestDomainErrorsDoNotDegrade(t *testing.T) {
	presencas := &fakePresencaRepo{}
	aulas := &fakeAulaRepo{aulas: []models.Aula{{ID: 10, TurmaID: 1, QRToken: "tok-abc"}}}
	turmas := &fakeTurmaMembership{}
	users := &fakeUserLookup{users: map[string]models.Usuario{
		"2024001": {ID: 2, RA: "2024001", Tipo: models.RoleAluno},
	}}
	local := &fakeLocalStore{counts: map[string]int{"2024001": 0}}
	svc := NewAttendanceService(presencas, aulas, turmas, NewIdentityService(users, nil), local, nil)

	// Unknown token is a rejection, not an outage.
	_, _, err := svc.RecordByRAAndToken(context.Background(), "2024001", "bogus")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, local.counts["2024001"])
}
