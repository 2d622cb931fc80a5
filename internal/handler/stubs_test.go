package handler_test

import (
	"context"
	"sync"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/model"
	"chainpilot/internal/scope"
	"chainpilot/internal/service"

	"github.com/google/uuid"
)

// ── In-memory services ───────────────────────────────────────────────────────
// They enforce scope the way the real services do, so the handlers can be
// tested for status mapping without a record store.

type stubInventory struct {
	mu    sync.Mutex
	items []model.InventoryItem
}

func (s *stubInventory) List(_ context.Context, actor scope.Actor, at *service.Location) ([]model.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := scope.Resolve(actor)
	if at != nil {
		if err := sc.Require(at.ID, at.Type); err != nil {
			return nil, err
		}
	}
	var out []model.InventoryItem
	for _, i := range s.items {
		if !sc.Allows(i.LocationID, i.LocationType) {
			continue
		}
		if at != nil && (i.LocationID != at.ID || i.LocationType != at.Type) {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (s *stubInventory) AdjustStock(_ context.Context, actor scope.Actor, id uuid.UUID, delta int) (*model.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, i := range s.items {
		if i.ID != id {
			continue
		}
		if err := scope.Resolve(actor).Require(i.LocationID, i.LocationType); err != nil {
			return nil, err
		}
		next := i.CurrentStock + delta
		if next < 0 || next > i.MaxCapacity {
			return nil, apperr.Invalid("out of bounds")
		}
		s.items[idx].CurrentStock = next
		out := s.items[idx]
		return &out, nil
	}
	return nil, apperr.ErrNotFound
}

func (s *stubInventory) set(id uuid.UUID, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items[idx].CurrentStock = stock
		}
	}
}

type stubSuggestions struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.Suggestion
}

func (s *stubSuggestions) List(_ context.Context, actor scope.Actor) ([]model.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := scope.Resolve(actor)
	var out []model.Suggestion
	for _, x := range s.rows {
		if sc.AllowsEither(x.FromLocationID, x.FromLocationType, x.ToLocationID, x.ToLocationType) {
			out = append(out, x)
		}
	}
	return out, nil
}

func (s *stubSuggestions) Resolve(_ context.Context, actor scope.Actor, id uuid.UUID, decision model.SuggestionStatus) (*model.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if !scope.Resolve(actor).AllowsEither(x.FromLocationID, x.FromLocationType, x.ToLocationID, x.ToLocationType) {
		return nil, apperr.Scope("suggestion %s", id)
	}
	if x.Status != model.SuggestionPending {
		return nil, apperr.Transition("suggestion %s is %s", id, x.Status)
	}
	x.Status = decision
	x.UpdatedAt = time.Now()
	s.rows[id] = x
	return &x, nil
}

type stubLocations struct {
	stores     []model.Store
	warehouses []model.Warehouse
}

func (s *stubLocations) List(context.Context) ([]model.Store, []model.Warehouse, error) {
	return s.stores, s.warehouses, nil
}

func (s *stubLocations) Stores(context.Context) ([]model.Store, error) { return s.stores, nil }

func (s *stubLocations) Warehouses(context.Context) ([]model.Warehouse, error) {
	return s.warehouses, nil
}

func (s *stubLocations) Exists(_ context.Context, loc service.Location) error {
	for _, st := range s.stores {
		if loc.Type == model.LocationStore && st.ID == loc.ID {
			return nil
		}
	}
	for _, w := range s.warehouses {
		if loc.Type == model.LocationWarehouse && w.ID == loc.ID {
			return nil
		}
	}
	return apperr.ErrNotFound
}

type stubForecasts struct{}

func (stubForecasts) List(context.Context, scope.Actor, *service.Location, int) ([]model.DemandForecast, error) {
	return nil, nil
}

type stubTransfers struct {
	mu   sync.Mutex
	last service.TransferFilter
}

func (s *stubTransfers) ListRequests(_ context.Context, _ scope.Actor, f service.TransferFilter) ([]model.TransferRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = f
	return []model.TransferRequest{}, nil
}

func (s *stubTransfers) ListLogs(_ context.Context, _ scope.Actor, f service.TransferFilter) ([]model.TransferLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = f
	return []model.TransferLog{}, nil
}

type stubAutomation struct {
	result *service.AutomationResult
	err    error
}

func (s stubAutomation) Trigger(context.Context, scope.Actor) (*service.AutomationResult, error) {
	return s.result, s.err
}
