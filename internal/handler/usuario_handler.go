package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/models"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/internal/service"
	appErrors "github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/errors"
	"github.com/VictorTavaresRafael/Kimono-flow-tracker/pkg/response"
)

// UsuarioHandler exposes read-only user lookups backed by the identity
// service.
type UsuarioHandler struct {
	identity *service.IdentityService
}

// NewUsuarioHandler creates a new handler.
func NewUsuarioHandler(identity *service.IdentityService) *UsuarioHandler {
	return &UsuarioHandler{identity: identity}
}

// List godoc
// @Summary List users by role
// @Description List users filtered by tipo (aluno, professor, monitor)
// @Tags Usuarios
// @Produce json
// @Param tipo query string true "User role"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /usuarios [get]
func (h *UsuarioHandler) List(c *gin.Context) {
	tipo := models.UserRole(c.Query("tipo"))
	switch tipo {
	case models.RoleAluno, models.RoleProfessor, models.RoleMonitor:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tipo must be aluno, professor or monitor"))
		return
	}

	users := h.identity.ListByRole(c.Request.Context(), tipo)
	response.JSON(c, http.StatusOK, users, nil, map[string]interface{}{"total": len(users)})
}

// Get godoc
// @Summary Resolve an RA
// @Description Resolve a registration code to its user record
// @Tags Usuarios
// @Produce json
// @Param ra path string true "Registration code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /usuarios/{ra} [get]
func (h *UsuarioHandler) Get(c *gin.Context) {
	user, err := h.identity.ResolveRA(c.Request.Context(), c.Param("ra"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
