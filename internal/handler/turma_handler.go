package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/response"
)

// TurmaHandler wires HTTP endpoints to the session service.
type TurmaHandler struct {
	sessions *service.SessionService
}

// NewTurmaHandler creates a new handler.
func NewTurmaHandler(sessions *service.SessionService) *TurmaHandler {
	return &TurmaHandler{sessions: sessions}
}

// Create godoc
// @Summary Create a turma
// @Description Create a class group owned by the authenticated professor
// @Tags Turmas
// @Accept json
// @Produce json
// @Param payload body service.CreateTurmaRequest true "Turma payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /turmas [post]
func (h *TurmaHandler) Create(c *gin.Context) {
	var req service.CreateTurmaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid turma payload"))
		return
	}
	if req.ProfessorID == 0 {
		if claims := claimsFromContext(c); claims != nil {
			req.ProfessorID = claims.UserID
		}
	}

	turma, err := h.sessions.CreateTurma(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, turma)
}

// List godoc
// @Summary List turmas
// @Description List turmas, optionally filtered by professor
// @Tags Turmas
// @Produce json
// @Param professorId query int false "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /turmas [get]
func (h *TurmaHandler) List(c *gin.Context) {
	var professorID *int64
	if raw := c.Query("professorId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "professorId must be an integer"))
			return
		}
		professorID = &id
	}

	turmas, err := h.sessions.ListTurmas(c.Request.Context(), professorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, turmas, nil)
}

// CreateAula godoc
// @Summary Open a new aula
// @Description Create a session for the turma with a fresh QR token
// @Tags Turmas
// @Produce json
// @Param id path int true "Turma ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id}/aulas [post]
func (h *TurmaHandler) CreateAula(c *gin.Context) {
	turmaID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	aula, err := h.sessions.CreateAula(c.Request.Context(), turmaID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, aula)
}

// ListAulas godoc
// @Summary List aulas of a turma
// @Description List sessions of a turma, most recent first
// @Tags Turmas
// @Produce json
// @Param id path int true "Turma ID"
// @Success 200 {object} response.Envelope
// @Router /turmas/{id}/aulas [get]
func (h *TurmaHandler) ListAulas(c *gin.Context) {
	turmaID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	aulas, err := h.sessions.ListAulas(c.Request.Context(), turmaID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, aulas, nil)
}

// AddAluno godoc
// @Summary Enroll a student
// @Description Add a student to the turma roster; re-enrolling is a no-op
// @Tags Turmas
// @Accept json
// @Produce json
// @Param id path int true "Turma ID"
// @Param payload body object true "Aluno ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id}/alunos [post]
func (h *TurmaHandler) AddAluno(c *gin.Context) {
	turmaID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var payload struct {
		AlunoID int64 `json:"aluno_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "aluno_id required"))
		return
	}

	if err := h.sessions.EnrollAluno(c.Request.Context(), payload.AlunoID, turmaID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be an integer")
	}
	return id, nil
}
