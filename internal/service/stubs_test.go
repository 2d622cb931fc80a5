package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/infra"
	"chainpilot/internal/model"
	"chainpilot/internal/repository"

	"github.com/google/uuid"
)

// ── In-memory SuggestionRepository stub ──────────────────────────────────────

type stubSuggestionRepo struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]*model.Suggestion
	updateErr   error
	updates     int
	queries     []repository.Query
	beforeWrite func() // runs between the read and the conditional write
}

func newStubSuggestionRepo(rows ...model.Suggestion) *stubSuggestionRepo {
	r := &stubSuggestionRepo{rows: make(map[uuid.UUID]*model.Suggestion)}
	for i := range rows {
		s := rows[i]
		r.rows[s.ID] = &s
	}
	return r
}

func suggestionColumn(s model.Suggestion, col string) interface{} {
	switch col {
	case "from_location_id":
		return s.FromLocationID
	case "from_location_type":
		return s.FromLocationType
	case "to_location_id":
		return s.ToLocationID
	case "to_location_type":
		return s.ToLocationType
	case "status":
		return s.Status
	}
	return nil
}

func (r *stubSuggestionRepo) List(_ context.Context, q repository.Query) ([]model.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	var out []model.Suggestion
	for _, s := range r.rows {
		ok := true
		for _, f := range q.Filters {
			if suggestionColumn(*s, f.Column) != f.Value {
				ok = false
			}
		}
		if ok {
			out = append(out, *s)
		}
	}
	if q.Order.Column == "created_at" {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (r *stubSuggestionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSuggestionRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to model.SuggestionStatus, at time.Time) (bool, error) {
	if r.beforeWrite != nil {
		r.beforeWrite()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return false, apperr.Update("suggestions.transition", r.updateErr)
	}
	s, ok := r.rows[id]
	if !ok || s.Status != from {
		return false, nil
	}
	r.updates++
	s.Status = to
	s.UpdatedAt = at
	return true, nil
}

func (r *stubSuggestionRepo) status(id uuid.UUID) model.SuggestionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id].Status
}

// ── In-memory InventoryRepository stub ───────────────────────────────────────

// stubInventoryRepo ignores query filters on purpose: scoping must hold even
// when the store returns more than it was asked for.
type stubInventoryRepo struct {
	mu    sync.Mutex
	items []model.InventoryItem
}

func (r *stubInventoryRepo) List(_ context.Context, _ repository.Query) ([]model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.InventoryItem, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *stubInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ID == id {
			cp := it
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *stubInventoryRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		it := &r.items[i]
		if it.ID != id {
			continue
		}
		next := it.CurrentStock + delta
		if next < 0 || next > it.MaxCapacity {
			return nil, apperr.Invalid("out of bounds")
		}
		it.CurrentStock = next
		cp := *it
		return &cp, nil
	}
	return nil, apperr.ErrNotFound
}

// ── In-memory TransferRepository stub ────────────────────────────────────────

type stubTransferRepo struct {
	requests []model.TransferRequest
	queries  []repository.Query
}

func (r *stubTransferRepo) ListRequests(_ context.Context, q repository.Query) ([]model.TransferRequest, error) {
	r.queries = append(r.queries, q)
	var out []model.TransferRequest
	for _, t := range r.requests {
		ok := true
		for _, f := range q.Filters {
			var v interface{}
			switch f.Column {
			case "from_location_id":
				v = t.FromLocationID
			case "from_location_type":
				v = t.FromLocationType
			case "to_location_id":
				v = t.ToLocationID
			case "to_location_type":
				v = t.ToLocationType
			}
			if v != f.Value {
				ok = false
			}
		}
		if ok {
			out = append(out, t)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *stubTransferRepo) ListLogs(context.Context, repository.Query) ([]model.TransferLog, error) {
	return []model.TransferLog{}, nil
}

// ── Webhook stub ─────────────────────────────────────────────────────────────

type stubWebhook struct {
	url    string
	status int
	err    error
	calls  int
}

func (w *stubWebhook) Configured() bool { return w.url != "" }

func (w *stubWebhook) Trigger(_ context.Context, _ infra.AutomationPayload) (int, error) {
	w.calls++
	return w.status, w.err
}
