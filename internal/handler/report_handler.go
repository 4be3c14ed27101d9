package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/response"
)

// ReportHandler serves the per-turma attendance report.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// TurmaReport godoc
// @Summary Download turma attendance report
// @Description Export the turma roster with per-student attendance counts as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Turma ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /turmas/{id}/report [get]
func (h *ReportHandler) TurmaReport(c *gin.Context) {
	turmaID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	format := service.ReportFormat(c.DefaultQuery("format", string(service.FormatCSV)))

	report, err := h.reports.TurmaAttendance(c.Request.Context(), turmaID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	c.Data(http.StatusOK, report.ContentType, report.Content)
}
