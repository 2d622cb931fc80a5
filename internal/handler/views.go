package handler

import (
	"context"
	"io"
	"time"

	"chainpilot/internal/middleware"
	"chainpilot/internal/scope"
	"chainpilot/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// DefaultHeartbeat keeps idle streams open through proxies.
const DefaultHeartbeat = 15 * time.Second

// liveView is what every view in package view exposes.
type liveView[T any] interface {
	Snapshot() T
	Changes() <-chan struct{}
	Close()
}

// ViewsHandler serves the live views as Server-Sent Events. A view lives
// exactly as long as its request.
type ViewsHandler struct {
	deps      view.Deps
	heartbeat time.Duration
}

func NewViewsHandler(deps view.Deps, heartbeat time.Duration) *ViewsHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &ViewsHandler{deps: deps, heartbeat: heartbeat}
}

// Dashboard godoc
// @Summary      Stream the scoped dashboard as Server-Sent Events
// @Tags         views
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200 {object} view.DashboardSnapshot
// @Router       /v1/views/dashboard [get]
func (h *ViewsHandler) Dashboard(c *gin.Context) {
	serve(c, h, func(ctx context.Context, actor scope.Actor) (liveView[view.DashboardSnapshot], error) {
		return view.OpenDashboard(ctx, h.deps, actor)
	})
}

// Suggestions godoc
// @Summary      Stream the suggestions page as Server-Sent Events
// @Tags         views
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200 {object} view.SuggestionsSnapshot
// @Router       /v1/views/suggestions [get]
func (h *ViewsHandler) Suggestions(c *gin.Context) {
	serve(c, h, func(ctx context.Context, actor scope.Actor) (liveView[view.SuggestionsSnapshot], error) {
		return view.OpenSuggestions(ctx, h.deps, actor)
	})
}

// Location godoc
// @Summary      Stream one store or warehouse page as Server-Sent Events
// @Tags         views
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        type path     string true "store or warehouse"
// @Param        id   path     string true "Location ID"
// @Success      200 {object} view.LocationSnapshot
// @Failure      403 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /v1/views/locations/{type}/{id} [get]
func (h *ViewsHandler) Location(c *gin.Context) {
	at, err := parseLocation(c.Param("type"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	serve(c, h, func(ctx context.Context, actor scope.Actor) (liveView[view.LocationSnapshot], error) {
		return view.OpenLocation(ctx, h.deps, actor, *at)
	})
}

func serve[T any](c *gin.Context, h *ViewsHandler, openView func(context.Context, scope.Actor) (liveView[T], error)) {
	actor := middleware.GetActor(c)
	v, err := openView(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	defer v.Close()

	log.Debug().
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Str("actor", actor.UserID.String()).
		Msg("view opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	first := true
	c.Stream(func(w io.Writer) bool {
		if first {
			first = false
			c.SSEvent("snapshot", v.Snapshot())
			return true
		}
		select {
		case <-c.Request.Context().Done():
			return false
		case _, ok := <-v.Changes():
			if !ok {
				return false
			}
			c.SSEvent("snapshot", v.Snapshot())
			return true
		case now := <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"at": now.UTC()})
			return true
		}
	})
}
