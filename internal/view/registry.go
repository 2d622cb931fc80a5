package view

import (
	"sync"

	"chainpilot/internal/model"
	"chainpilot/internal/projection"
)

// suggestionHolder is a view that mirrors the suggestions table.
type suggestionHolder interface {
	patchSuggestion(s model.Suggestion)
}

// Registry tracks the open views that mirror suggestions, so a decision
// taken over REST shows up on every live stream before its bus event lands.
// A nil *Registry tracks nothing.
type Registry struct {
	mu    sync.Mutex
	views map[suggestionHolder]struct{}
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[suggestionHolder]struct{})}
}

// attach registers v and returns the func that unregisters it.
func (r *Registry) attach(v suggestionHolder) func() {
	if r == nil {
		return func() {}
	}
	r.mu.Lock()
	r.views[v] = struct{}{}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.views, v)
		r.mu.Unlock()
	}
}

// Apply patches s into every open view holding it. Views that never loaded
// s are left to their next reload.
func (r *Registry) Apply(s *model.Suggestion) {
	if r == nil || s == nil {
		return
	}
	r.mu.Lock()
	views := make([]suggestionHolder, 0, len(r.views))
	for v := range r.views {
		views = append(views, v)
	}
	r.mu.Unlock()
	for _, v := range views {
		v.patchSuggestion(*s)
	}
}

// Len returns the number of attached views.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func patchSuggestion(c *projection.Cache[model.Suggestion], s model.Suggestion) bool {
	return c.Patch(s.ID.String(), func(x model.Suggestion) model.Suggestion {
		x.Status = s.Status
		x.UpdatedAt = s.UpdatedAt
		return x
	})
}
