package handler

import (
	"net/http"

	"chainpilot/internal/middleware"
	"chainpilot/internal/model"
	"chainpilot/internal/service"
	"chainpilot/internal/view"

	"github.com/gin-gonic/gin"
)

type SuggestionsHandler struct {
	svc      service.SuggestionService
	workflow service.SuggestionWorkflow
	live     *view.Registry
}

// NewSuggestionsHandler builds the handler. Accepted decisions are patched
// into the views attached to live, which may be nil.
func NewSuggestionsHandler(svc service.SuggestionService, workflow service.SuggestionWorkflow, live *view.Registry) *SuggestionsHandler {
	return &SuggestionsHandler{svc: svc, workflow: workflow, live: live}
}

// List godoc
// @Summary      List transfer suggestions visible to the caller
// @Tags         suggestions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array}  model.Suggestion
// @Failure      502 {object} apierror.APIError
// @Router       /v1/suggestions [get]
func (h *SuggestionsHandler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Approve godoc
// @Summary      Approve a pending suggestion
// @Tags         suggestions
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Suggestion ID"
// @Success      200 {object} model.Suggestion
// @Failure      403 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/suggestions/{id}/approve [post]
func (h *SuggestionsHandler) Approve(c *gin.Context) { h.resolve(c, model.SuggestionApproved) }

// Reject godoc
// @Summary      Reject a pending suggestion
// @Tags         suggestions
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Suggestion ID"
// @Success      200 {object} model.Suggestion
// @Failure      403 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/suggestions/{id}/reject [post]
func (h *SuggestionsHandler) Reject(c *gin.Context) { h.resolve(c, model.SuggestionRejected) }

func (h *SuggestionsHandler) resolve(c *gin.Context, decision model.SuggestionStatus) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s, err := h.workflow.Resolve(c.Request.Context(), middleware.GetActor(c), id, decision)
	if err != nil {
		respondError(c, err)
		return
	}
	h.live.Apply(s)
	c.JSON(http.StatusOK, s)
}
