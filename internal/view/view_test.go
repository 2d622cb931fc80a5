package view_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/model"
	"chainpilot/internal/notify"
	"chainpilot/internal/repository"
	"chainpilot/internal/scope"
	"chainpilot/internal/service"
	"chainpilot/internal/view"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wait = 2 * time.Second
const tick = 5 * time.Millisecond

// ── In-memory record store ───────────────────────────────────────────────────
// The fake repositories ignore query filters; the services re-check every row
// against the scope, which is what these tests rely on.

type store struct {
	mu          sync.Mutex
	stores      []model.Store
	warehouses  []model.Warehouse
	inventory   []model.InventoryItem
	forecasts   []model.DemandForecast
	transfers   []model.TransferRequest
	suggestions map[uuid.UUID]*model.Suggestion
}

type inventoryRepo struct{ *store }

func (r inventoryRepo) List(context.Context, repository.Query) ([]model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.InventoryItem(nil), r.inventory...), nil
}

func (r inventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.inventory {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r inventoryRepo) AdjustStock(context.Context, uuid.UUID, int) (*model.InventoryItem, error) {
	return nil, errors.New("not used")
}

type suggestionRepo struct{ *store }

func (r suggestionRepo) List(context.Context, repository.Query) ([]model.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Suggestion, 0, len(r.suggestions))
	for _, s := range r.suggestions {
		out = append(out, *s)
	}
	return out, nil
}

func (r suggestionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suggestions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r suggestionRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to model.SuggestionStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suggestions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status, s.UpdatedAt = to, at
	return true, nil
}

type locationRepo struct{ *store }

func (r locationRepo) ListStores(context.Context) ([]model.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Store(nil), r.stores...), nil
}

func (r locationRepo) ListWarehouses(context.Context) ([]model.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Warehouse(nil), r.warehouses...), nil
}

func (r locationRepo) FindStore(_ context.Context, id uuid.UUID) (*model.Store, error) {
	for _, s := range r.stores {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r locationRepo) FindWarehouse(_ context.Context, id uuid.UUID) (*model.Warehouse, error) {
	for _, w := range r.warehouses {
		if w.ID == id {
			return &w, nil
		}
	}
	return nil, apperr.ErrNotFound
}

type forecastRepo struct{ *store }

func (r forecastRepo) List(context.Context, repository.Query) ([]model.DemandForecast, error) {
	return append([]model.DemandForecast(nil), r.forecasts...), nil
}

type transferRepo struct{ *store }

func (r transferRepo) ListRequests(context.Context, repository.Query) ([]model.TransferRequest, error) {
	return append([]model.TransferRequest(nil), r.transfers...), nil
}

func (r transferRepo) ListLogs(context.Context, repository.Query) ([]model.TransferLog, error) {
	return nil, nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type env struct {
	db        *store
	bus       *notify.MemoryBus
	deps      view.Deps
	storeID   uuid.UUID
	whID      uuid.UUID
	s1        uuid.UUID
	otherShop uuid.UUID
}

func newEnv() *env {
	mem := notify.NewMemoryBus()
	e := &env{bus: mem, storeID: uuid.New(), whID: uuid.New(), s1: uuid.New(), otherShop: uuid.New()}
	e.db = &store{
		stores: []model.Store{
			{ID: e.storeID, Name: "Downtown", Location: "Main St", MaxCapacity: 1000},
			{ID: e.otherShop, Name: "Uptown", Location: "5th Ave", MaxCapacity: 1000},
		},
		warehouses: []model.Warehouse{{ID: e.whID, Name: "North Hub", Location: "Ring Rd", MaxCapacity: 10000}},
		inventory: []model.InventoryItem{
			{ID: uuid.New(), LocationID: e.storeID, LocationType: model.LocationStore, SKU: "A", CurrentStock: 15, MinThreshold: 20, MaxCapacity: 100},
			{ID: uuid.New(), LocationID: e.storeID, LocationType: model.LocationStore, SKU: "B", CurrentStock: 80, MinThreshold: 20, MaxCapacity: 100},
			{ID: uuid.New(), LocationID: e.whID, LocationType: model.LocationWarehouse, SKU: "A", CurrentStock: 2500, MinThreshold: 100, MaxCapacity: 5000},
			{ID: uuid.New(), LocationID: e.otherShop, LocationType: model.LocationStore, SKU: "A", CurrentStock: 5, MinThreshold: 10, MaxCapacity: 100},
		},
		transfers: []model.TransferRequest{
			{ID: uuid.New(), FromLocationID: e.whID, FromLocationType: model.LocationWarehouse, ToLocationID: e.storeID, ToLocationType: model.LocationStore, Quantity: 10},
			{ID: uuid.New(), FromLocationID: e.otherShop, FromLocationType: model.LocationStore, ToLocationID: e.whID, ToLocationType: model.LocationWarehouse, Quantity: 5},
		},
		suggestions: map[uuid.UUID]*model.Suggestion{
			e.s1: {
				ID: e.s1, FromLocationID: e.whID, FromLocationType: model.LocationWarehouse,
				ToLocationID: e.storeID, ToLocationType: model.LocationStore,
				SKU: "A", Quantity: 40, Status: model.SuggestionPending, CreatedAt: time.Now(),
			},
		},
	}
	sugRepo := suggestionRepo{e.db}
	e.deps = view.Deps{
		Bus:         mem,
		Inventory:   service.NewInventoryService(inventoryRepo{e.db}, mem),
		Suggestions: service.NewSuggestionService(sugRepo, false),
		Workflow:    service.NewSuggestionWorkflow(sugRepo, mem),
		Locations:   service.NewLocationService(locationRepo{e.db}),
		Forecasts:   service.NewForecastService(forecastRepo{e.db}),
		Transfers:   service.NewTransferService(transferRepo{e.db}),
	}
	return e
}

func admin() scope.Actor { return scope.Actor{UserID: uuid.New(), Role: model.RoleAdmin} }

func manager(id uuid.UUID) scope.Actor {
	return scope.Actor{UserID: uuid.New(), Role: model.RoleStoreManager, LinkedStoreID: &id}
}

// failingBus refuses subscriptions to one table.
type failingBus struct {
	*notify.MemoryBus
	table string
}

func (b failingBus) Subscribe(ctx context.Context, table string) (notify.Subscription, error) {
	if table == b.table {
		return nil, errors.New("listen refused")
	}
	return b.MemoryBus.Subscribe(ctx, table)
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestSuggestions_RejectThenApproveFails(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	v, err := view.OpenSuggestions(ctx, e.deps, admin())
	require.NoError(t, err)
	defer v.Close()

	require.Len(t, v.Snapshot().Pending, 1)

	_, err = v.Resolve(ctx, e.s1, model.SuggestionRejected)
	require.NoError(t, err)

	// Optimistic patch is visible at once.
	snap := v.Snapshot()
	require.Len(t, snap.Processed, 1)
	assert.Equal(t, model.SuggestionRejected, snap.Processed[0].Status)
	assert.Empty(t, snap.Pending)

	// The bus-driven reload agrees.
	require.Eventually(t, func() bool {
		s := v.Snapshot()
		return len(s.Processed) == 1 && s.Processed[0].Status == model.SuggestionRejected && s.Version >= 5
	}, wait, tick)

	_, err = v.Resolve(ctx, e.s1, model.SuggestionApproved)
	assert.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
	snap = v.Snapshot()
	assert.Equal(t, model.SuggestionRejected, snap.Processed[0].Status)
	assert.Equal(t, derefCounts(snap), [3]int{0, 0, 1})
	assert.Equal(t, "North Hub", snap.Processed[0].FromName)
	assert.Equal(t, "Downtown", snap.Processed[0].ToName)
}

func derefCounts(s view.SuggestionsSnapshot) [3]int {
	return [3]int{s.Counts.Pending, s.Counts.Approved, s.Counts.Rejected}
}

func TestSuggestions_UntouchedByInventoryEvents(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sv, err := view.OpenSuggestions(ctx, e.deps, admin())
	require.NoError(t, err)
	defer sv.Close()
	dv, err := view.OpenDashboard(ctx, e.deps, admin())
	require.NoError(t, err)
	defer dv.Close()

	before := sv.Snapshot().Version
	dashBefore := dv.Snapshot().Version

	require.NoError(t, e.bus.Publish(ctx, notify.Event{Table: model.TableInventory}))
	require.Eventually(t, func() bool { return dv.Snapshot().Version > dashBefore }, wait, tick)

	assert.Equal(t, before, sv.Snapshot().Version)
}

func TestDashboard_StoreManagerOverview(t *testing.T) {
	e := newEnv()
	v, err := view.OpenDashboard(context.Background(), e.deps, manager(e.storeID))
	require.NoError(t, err)
	defer v.Close()

	snap := v.Snapshot()
	assert.Equal(t, "My Store Overview", snap.Title)
	assert.Equal(t, "Downtown", snap.Location)
	assert.Equal(t, 95, snap.Totals.TotalStock)
	assert.Equal(t, 1, snap.Totals.LowStockCount)
	assert.Equal(t, 1, snap.PendingSuggestions)
	assert.Equal(t, 3, snap.LocationCount)
	require.Len(t, snap.Items, 2)
	for _, row := range snap.Items {
		assert.Equal(t, e.storeID, row.LocationID)
		assert.Equal(t, "Downtown", row.LocationName)
	}
	assert.True(t, snap.Live)
	assert.Empty(t, snap.Errors)
}

func TestDashboard_AdminOverview(t *testing.T) {
	e := newEnv()
	v, err := view.OpenDashboard(context.Background(), e.deps, admin())
	require.NoError(t, err)
	defer v.Close()

	snap := v.Snapshot()
	assert.Equal(t, "System Overview", snap.Title)
	assert.Equal(t, "All Locations", snap.Location)
	assert.Equal(t, 2600, snap.Totals.TotalStock)
	assert.Len(t, snap.Items, 4)
}

func TestLocation_WarehousePage(t *testing.T) {
	e := newEnv()
	wm := scope.Actor{UserID: uuid.New(), Role: model.RoleWarehouseManager, LinkedWarehouseID: &e.whID}
	v, err := view.OpenLocation(context.Background(), e.deps, wm, service.Location{ID: e.whID, Type: model.LocationWarehouse})
	require.NoError(t, err)
	defer v.Close()

	snap := v.Snapshot()
	assert.Equal(t, "North Hub", snap.Location.Name)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 25.0, snap.Capacity.Percentage)
	assert.Equal(t, 7500, snap.Capacity.Available)
	assert.Equal(t, 1, snap.Flow.Incoming)
	assert.Equal(t, 1, snap.Flow.Outgoing)
	require.Len(t, snap.IncomingTransfers, 1)
	assert.Equal(t, e.otherShop, snap.IncomingTransfers[0].FromLocationID)
}

func TestLocation_OutOfScopeSubscribesNothing(t *testing.T) {
	e := newEnv()
	_, err := view.OpenLocation(context.Background(), e.deps, manager(e.storeID), service.Location{ID: e.otherShop, Type: model.LocationStore})
	assert.ErrorIs(t, err, apperr.ErrScopeViolation)
	for _, table := range model.WatchedTables {
		assert.Equal(t, 0, e.bus.Subscribers(table), table)
	}

	_, err = view.OpenLocation(context.Background(), e.deps, admin(), service.Location{ID: uuid.New(), Type: model.LocationStore})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOpen_SetupFailureReleasesEverything(t *testing.T) {
	e := newEnv()
	e.deps.Bus = failingBus{MemoryBus: e.bus, table: model.TableWarehouses}

	v, err := view.OpenDashboard(context.Background(), e.deps, admin())
	assert.Nil(t, v)
	assert.ErrorIs(t, err, apperr.ErrSubscription)
	for _, table := range model.WatchedTables {
		assert.Equal(t, 0, e.bus.Subscribers(table), table)
	}
}

func TestOpenSuggestions_SetupFailureReleasesEverything(t *testing.T) {
	e := newEnv()
	e.deps.Bus = failingBus{MemoryBus: e.bus, table: model.TableWarehouses}

	v, err := view.OpenSuggestions(context.Background(), e.deps, admin())
	assert.Nil(t, v)
	assert.ErrorIs(t, err, apperr.ErrSubscription)
	assert.Equal(t, 0, e.bus.Subscribers(model.TableSuggestions))
	assert.Equal(t, 0, e.bus.Subscribers(model.TableStores))
}

func TestOpenLocation_SetupFailureReleasesEverything(t *testing.T) {
	e := newEnv()
	e.deps.Bus = failingBus{MemoryBus: e.bus, table: model.TableTransferRequests}
	at := service.Location{ID: e.storeID, Type: model.LocationStore}

	v, err := view.OpenLocation(context.Background(), e.deps, admin(), at)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, apperr.ErrSubscription)
	for _, table := range model.WatchedTables {
		assert.Equal(t, 0, e.bus.Subscribers(table), table)
	}
}

func TestClose_ReleasesAndClosesChanges(t *testing.T) {
	e := newEnv()
	v, err := view.OpenDashboard(context.Background(), e.deps, admin())
	require.NoError(t, err)
	assert.Equal(t, 1, e.bus.Subscribers(model.TableInventory))

	v.Close()
	v.Close()
	assert.Equal(t, 0, e.bus.Subscribers(model.TableInventory))
	for range v.Changes() {
	}
}

func TestRegistry_AppliesDecisionToOpenViews(t *testing.T) {
	e := newEnv()
	e.deps.Live = view.NewRegistry()
	ctx := context.Background()

	sv, err := view.OpenSuggestions(ctx, e.deps, admin())
	require.NoError(t, err)
	dv, err := view.OpenDashboard(ctx, e.deps, admin())
	require.NoError(t, err)
	assert.Equal(t, 2, e.deps.Live.Len())
	require.Equal(t, 1, dv.Snapshot().PendingSuggestions)

	// Apply patches synchronously; the reload triggered by the bus event
	// lands later with the same status.
	s, err := e.deps.Workflow.Resolve(ctx, admin(), e.s1, model.SuggestionRejected)
	require.NoError(t, err)
	e.deps.Live.Apply(s)

	assert.Equal(t, 0, dv.Snapshot().PendingSuggestions)
	snap := sv.Snapshot()
	assert.Empty(t, snap.Pending)
	require.Len(t, snap.Processed, 1)
	assert.Equal(t, model.SuggestionRejected, snap.Processed[0].Status)

	sv.Close()
	dv.Close()
	assert.Equal(t, 0, e.deps.Live.Len())
	e.deps.Live.Apply(s)
}
