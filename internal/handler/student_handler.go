package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/response"
)

// StudentHandler wires HTTP endpoints to the roster service. Roster responses
// carry a meta.source tag so clients can tell primary data from the local
// fallback copy.
type StudentHandler struct {
	roster     *service.RosterService
	attendance *service.AttendanceService
	metrics    *service.MetricsService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(roster *service.RosterService, attendance *service.AttendanceService, metrics *service.MetricsService) *StudentHandler {
	return &StudentHandler{roster: roster, attendance: attendance, metrics: metrics}
}

// List godoc
// @Summary List students
// @Description List all students with details and attendance counts
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	alunos, source, cacheHit, err := h.roster.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.ObserveRosterRead(source)
	h.metrics.RecordCacheOperation(cacheHit)

	response.JSON(c, http.StatusOK, alunos, nil, map[string]interface{}{
		"source":    source,
		"cache_hit": cacheHit,
	})
}

// Get godoc
// @Summary Get a student
// @Description Get one student by RA
// @Tags Students
// @Produce json
// @Param ra path string true "Student RA"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{ra} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	ra := c.Param("ra")
	aluno, source, err := h.roster.GetByRA(c.Request.Context(), ra)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.ObserveRosterRead(source)

	response.JSON(c, http.StatusOK, aluno, nil, map[string]interface{}{"source": source})
}

// Upsert godoc
// @Summary Create or update a student
// @Description Save the composite student record keyed by RA
// @Tags Students
// @Accept json
// @Produce json
// @Param ra path string true "Student RA"
// @Param payload body service.UpsertStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{ra} [put]
func (h *StudentHandler) Upsert(c *gin.Context) {
	var req service.UpsertStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	req.RA = c.Param("ra")

	aluno, source, err := h.roster.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, aluno, nil, map[string]interface{}{"source": source})
}

// Presencas godoc
// @Summary List a student's attendance
// @Description List every attendance record for the student, most recent first
// @Tags Students
// @Produce json
// @Param ra path string true "Student RA"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{ra}/presencas [get]
func (h *StudentHandler) Presencas(c *gin.Context) {
	ra := c.Param("ra")
	presencas, err := h.attendance.ListByRA(c.Request.Context(), ra)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, presencas, nil, map[string]interface{}{"total": len(presencas)})
}
