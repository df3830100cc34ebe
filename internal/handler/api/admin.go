package api

import (
	"net/http"

	"rafflywin/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	maintenance commands.MaintenanceCommands
}

func NewAdminHandler(maintenance commands.MaintenanceCommands) *AdminHandler {
	return &AdminHandler{
		maintenance: maintenance,
	}
}

// @Summary Run draws
// @Description Draw winners for every active raffle whose raffle date has passed
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /admin/draw [post]
func (h *AdminHandler) RunDraws(c *gin.Context) {
	drawn, err := h.maintenance.RunDueDraws(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Draw run failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drawn": drawn,
	})
}
