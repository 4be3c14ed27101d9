package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/response"
)

// AulaHandler resolves scanned QR tokens to their sessions.
type AulaHandler struct {
	sessions *service.SessionService
}

// NewAulaHandler creates a new handler.
func NewAulaHandler(sessions *service.SessionService) *AulaHandler {
	return &AulaHandler{sessions: sessions}
}

// GetByToken godoc
// @Summary Resolve a QR token
// @Description Resolve a scanned QR token to its aula
// @Tags Aulas
// @Produce json
// @Param token path string true "QR token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /aulas/token/{token} [get]
func (h *AulaHandler) GetByToken(c *gin.Context) {
	aula, err := h.sessions.GetAulaByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, aula, nil)
}
