package handler

import (
	"net/http"

	"chainpilot/internal/dto"
	"chainpilot/internal/middleware"
	"chainpilot/internal/service"

	"github.com/gin-gonic/gin"
)

type AutomationHandler struct{ svc service.AutomationService }

func NewAutomationHandler(svc service.AutomationService) *AutomationHandler {
	return &AutomationHandler{svc: svc}
}

// Trigger godoc
// @Summary      Trigger the forecast automation webhook (admin only)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.AutomationResponse
// @Failure      403 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Failure      502 {object} apierror.APIError
// @Router       /v1/admin/automation/trigger [post]
func (h *AutomationHandler) Trigger(c *gin.Context) {
	res, err := h.svc.Trigger(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AutomationResponse{
		Message:     "Forecast automation triggered",
		StatusCode:  res.StatusCode,
		TriggeredAt: res.TriggeredAt,
	})
}
