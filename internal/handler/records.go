package handler

import (
	"net/http"

	"chainpilot/internal/dto"
	"chainpilot/internal/middleware"
	"chainpilot/internal/service"

	"github.com/gin-gonic/gin"
)

type ForecastsHandler struct{ svc service.ForecastService }

func NewForecastsHandler(svc service.ForecastService) *ForecastsHandler {
	return &ForecastsHandler{svc: svc}
}

// List godoc
// @Summary      List demand forecasts in the caller's scope
// @Tags         forecasts
// @Produce      json
// @Security     BearerAuth
// @Param        location_id   query    string false "Location ID (requires location_type)"
// @Param        location_type query    string false "store or warehouse (requires location_id)"
// @Success      200 {array}  model.DemandForecast
// @Failure      403 {object} apierror.APIError
// @Router       /v1/forecasts [get]
func (h *ForecastsHandler) List(c *gin.Context) {
	var q dto.LocationQuery
	if !bindQuery(c, &q) {
		return
	}
	at, err := queryLocation(q)
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := h.svc.List(c.Request.Context(), middleware.GetActor(c), at, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type TransfersHandler struct{ svc service.TransferService }

func NewTransfersHandler(svc service.TransferService) *TransfersHandler {
	return &TransfersHandler{svc: svc}
}

func (h *TransfersHandler) filter(c *gin.Context) (service.TransferFilter, bool) {
	var q dto.TransferQuery
	if !bindQuery(c, &q) {
		return service.TransferFilter{}, false
	}
	at, err := queryLocation(q.LocationQuery)
	if err != nil {
		respondError(c, err)
		return service.TransferFilter{}, false
	}
	return service.TransferFilter{At: at, Direction: service.Direction(q.Direction), Limit: q.Limit}, true
}

// ListRequests godoc
// @Summary      List transfer requests touching the caller's scope
// @Tags         transfers
// @Produce      json
// @Security     BearerAuth
// @Param        location_id   query    string false "Location ID (requires location_type)"
// @Param        location_type query    string false "store or warehouse (requires location_id)"
// @Param        direction     query    string false "incoming or outgoing"
// @Param        limit         query    int    false "Maximum rows (0 = all)"
// @Success      200 {array}  model.TransferRequest
// @Failure      403 {object} apierror.APIError
// @Router       /v1/transfers [get]
func (h *TransfersHandler) ListRequests(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListRequests(c.Request.Context(), middleware.GetActor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListLogs godoc
// @Summary      List transfer log entries touching the caller's scope
// @Tags         transfers
// @Produce      json
// @Security     BearerAuth
// @Param        location_id   query    string false "Location ID (requires location_type)"
// @Param        location_type query    string false "store or warehouse (requires location_id)"
// @Param        direction     query    string false "incoming or outgoing"
// @Param        limit         query    int    false "Maximum rows (0 = all)"
// @Success      200 {array}  model.TransferLog
// @Failure      403 {object} apierror.APIError
// @Router       /v1/transfer-logs [get]
func (h *TransfersHandler) ListLogs(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListLogs(c.Request.Context(), middleware.GetActor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
