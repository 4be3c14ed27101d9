package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/response"
)

// AttendanceHandler wires the check-in flows to the attendance service.
// Recording an already-recorded pair is a success: the response carries
// meta.already_recorded=true instead of an error.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	metrics    *service.MetricsService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(attendance *service.AttendanceService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, metrics: metrics}
}

// Record godoc
// @Summary Record attendance
// @Description Record one student into one aula, attributed to the authenticated recorder
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body object true "Aula and aluno IDs"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /presencas [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var payload struct {
		AulaID  int64 `json:"aula_id" binding:"required"`
		AlunoID int64 `json:"aluno_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "aula_id and aluno_id required"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	presenca, already, err := h.attendance.Record(c.Request.Context(), payload.AulaID, payload.AlunoID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, presenca, already)
}

// RecordQR godoc
// @Summary QR check-in
// @Description Record attendance from a typed RA and a scanned QR token
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body object true "RA and QR token"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/qr [post]
func (h *AttendanceHandler) RecordQR(c *gin.Context) {
	var payload struct {
		RA      string `json:"ra" binding:"required"`
		QRToken string `json:"qr_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "ra and qr_token required"))
		return
	}

	presenca, already, err := h.attendance.RecordByRAAndToken(c.Request.Context(), payload.RA, payload.QRToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, presenca, already)
}

// RecordSelf godoc
// @Summary Self-service check-in
// @Description Record the student into the most recent aula of one of their turmas
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body object true "RA and turma ID"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/self [post]
func (h *AttendanceHandler) RecordSelf(c *gin.Context) {
	var payload struct {
		RA      string `json:"ra" binding:"required"`
		TurmaID int64  `json:"turma_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "ra and turma_id required"))
		return
	}

	presenca, already, err := h.attendance.RecordSelfService(c.Request.Context(), payload.RA, payload.TurmaID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, presenca, already)
}

// ListTurmas godoc
// @Summary List self-service turmas
// @Description List the turmas a student can self-check into
// @Tags Attendance
// @Produce json
// @Param ra query string true "Student RA"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/turmas [get]
func (h *AttendanceHandler) ListTurmas(c *gin.Context) {
	ra := c.Query("ra")
	if ra == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ra query parameter required"))
		return
	}

	turmas, err := h.attendance.ListTurmasForRA(c.Request.Context(), ra)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, turmas, nil)
}

func (h *AttendanceHandler) respond(c *gin.Context, presenca interface{}, already bool) {
	h.metrics.ObservePresenca(already)

	status := http.StatusCreated
	if already {
		status = http.StatusOK
	}
	response.JSON(c, status, presenca, nil, map[string]interface{}{"already_recorded": already})
}
