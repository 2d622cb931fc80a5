package handler

import (
	"net/http"

	"chainpilot/internal/dto"
	"chainpilot/internal/middleware"
	"chainpilot/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// List godoc
// @Summary      List inventory in the caller's scope
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        location_id   query    string false "Location ID (requires location_type)"
// @Param        location_type query    string false "store or warehouse (requires location_id)"
// @Success      200 {array}  model.InventoryItem
// @Failure      403 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Router       /v1/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var q dto.LocationQuery
	if !bindQuery(c, &q) {
		return
	}
	at, err := queryLocation(q)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.svc.List(c.Request.Context(), middleware.GetActor(c), at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// AdjustStock godoc
// @Summary      Atomically adjust the stock of one inventory row
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                 true "Inventory item ID"
// @Param        body body     dto.AdjustStockRequest true "Signed delta"
// @Success      200 {object} model.InventoryItem
// @Failure      403 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/inventory/{id}/stock [patch]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	item, err := h.svc.AdjustStock(c.Request.Context(), middleware.GetActor(c), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
