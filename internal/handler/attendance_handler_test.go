package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/response"
)

type presencaRepoStub struct {
	presencas []models.Presenca
	nextID    int64
}

func (s *presencaRepoStub) FindByAulaAndAluno(ctx context.Context, aulaID, alunoID int64) ([]models.Presenca, error) {
	var found []models.Presenca
	for _, p := range s.presencas {
		if p.AulaID == aulaID && p.AlunoID == alunoID {
			found = append(found, p)
		}
	}
	return found, nil
}

func (s *presencaRepoStub) Insert(ctx context.Context, presenca *models.Presenca) error {
	s.nextID++
	presenca.ID = s.nextID
	s.presencas = append(s.presencas, *presenca)
	return nil
}

func (s *presencaRepoStub) ListByAluno(ctx context.Context, alunoID int64) ([]models.Presenca, error) {
	return s.presencas, nil
}

func (s *presencaRepoStub) CountByAluno(ctx context.Context, alunoID int64) (int, error) {
	return len(s.presencas), nil
}

type aulaRepoStub struct {
	aula models.Aula
}

func (s *aulaRepoStub) FindByID(ctx context.Context, id int64) (*models.Aula, error) {
	if s.aula.ID == id {
		return &s.aula, nil
	}
	return nil, sql.ErrNoRows
}

func (s *aulaRepoStub) FindByToken(ctx context.Context, token string) (*models.Aula, error) {
	if s.aula.QRToken == token {
		return &s.aula, nil
	}
	return nil, sql.ErrNoRows
}

func (s *aulaRepoStub) MostRecentByTurma(ctx context.Context, turmaID int64) (*models.Aula, error) {
	if s.aula.TurmaID == turmaID {
		return &s.aula, nil
	}
	return nil, nil
}

type turmaRepoStub struct{}

func (s *turmaRepoStub) HasAluno(ctx context.Context, alunoID, turmaID int64) (bool, error) {
	return true, nil
}

func (s *turmaRepoStub) ListByAluno(ctx context.Context, alunoID int64) ([]models.Turma, error) {
	return []models.Turma{{ID: 1, Nome: "Jiu-Jitsu Iniciante"}}, nil
}

type userRepoStub struct{}

func (s *userRepoStub) FindByRA(ctx context.Context, ra string) (*models.Usuario, error) {
	if ra == "2024001" {
		return &models.Usuario{ID: 2, RA: ra, Nome: "Joao", Tipo: models.RoleAluno}, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) ListByTipo(ctx context.Context, tipo models.UserRole) ([]models.Usuario, error) {
	return nil, nil
}

func newAttendanceTestHandler() *AttendanceHandler {
	svc := service.NewAttendanceService(
		&presencaRepoStub{},
		&aulaRepoStub{aula: models.Aula{ID: 10, TurmaID: 1, QRToken: "tok-abc"}},
		&turmaRepoStub{},
		service.NewIdentityService(&userRepoStub{}, nil),
		nil,
		nil,
	)
	return NewAttendanceHandler(svc, service.NewMetricsService())
}

func performJSON(t *testing.T, handlerFn gin.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handlerFn(c)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestAttendanceHandlerQRCheckIn(t *testing.T) {
	handler := newAttendanceTestHandler()

	w := performJSON(t, handler.RecordQR, http.MethodPost, "/attendance/qr", gin.H{
		"ra":       "2024001",
		"qr_token": "tok-abc",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, false, envelope.Meta["already_recorded"])
}

func TestAttendanceHandlerQRDuplicateIsOK(t *testing.T) {
	handler := newAttendanceTestHandler()
	body := gin.H{"ra": "2024001", "qr_token": "tok-abc"}

	first := performJSON(t, handler.RecordQR, http.MethodPost, "/attendance/qr", body)
	require.Equal(t, http.StatusCreated, first.Code)

	second := performJSON(t, handler.RecordQR, http.MethodPost, "/attendance/qr", body)
	require.Equal(t, http.StatusOK, second.Code)
	envelope := decodeEnvelope(t, second)
	assert.Equal(t, true, envelope.Meta["already_recorded"])
}

func TestAttendanceHandlerQRUnknownToken(t *testing.T) {
	handler := newAttendanceTestHandler()

	w := performJSON(t, handler.RecordQR, http.MethodPost, "/attendance/qr", gin.H{
		"ra":       "2024001",
		"qr_token": "bogus",
	})

	require.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
}

func TestAttendanceHandlerQRMissingFields(t *testing.T) {
	handler := newAttendanceTestHandler()

	w := performJSON(t, handler.RecordQR, http.MethodPost, "/attendance/qr", gin.H{"ra": "2024001"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerSelfCheckIn(t *testing.T) {
	handler := newAttendanceTestHandler()

	w := performJSON(t, handler.RecordSelf, http.MethodPost, "/attendance/self", gin.H{
		"ra":       "2024001",
		"turma_id": 1,
	})

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestAttendanceHandlerListTurmasRequiresRA(t *testing.T) {
	handler := newAttendanceTestHandler()

	w := performJSON(t, handler.ListTurmas, http.MethodGet, "/attendance/turmas", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerListTurmas(t *testing.T) {
	handler := newAttendanceTestHandler()

	w := performJSON(t, handler.ListTurmas, http.MethodGet, "/attendance/turmas?ra=2024001", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
