package handler

import (
	"net/http"

	"chainpilot/internal/dto"
	"chainpilot/internal/service"

	"github.com/gin-gonic/gin"
)

type LocationsHandler struct{ svc service.LocationService }

func NewLocationsHandler(svc service.LocationService) *LocationsHandler {
	return &LocationsHandler{svc: svc}
}

// List returns the location directory. Names are not scoped: every
// authenticated actor may resolve any location id to its name.
//
// @Summary      List stores and warehouses
// @Tags         locations
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.LocationsResponse
// @Router       /v1/locations [get]
func (h *LocationsHandler) List(c *gin.Context) {
	stores, warehouses, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LocationsResponse{Stores: stores, Warehouses: warehouses})
}
