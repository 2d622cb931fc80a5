package service

import (
	"context"
	"time"

	"chainpilot/internal/model"
	"chainpilot/internal/repository"
	"chainpilot/internal/scope"

	"github.com/google/uuid"
)

// ── Forecasts ────────────────────────────────────────────────────────────────

// ForecastHorizon is how many upcoming forecast rows a location view shows.
const ForecastHorizon = 7

type ForecastService interface {
	// List returns forecasts ordered by date, at most limit rows (0 = all).
	List(ctx context.Context, actor scope.Actor, at *Location, limit int) ([]model.DemandForecast, error)
}

type forecastService struct {
	repo repository.ForecastRepository
}

func NewForecastService(repo repository.ForecastRepository) ForecastService {
	return &forecastService{repo: repo}
}

func (s *forecastService) List(ctx context.Context, actor scope.Actor, at *Location, limit int) ([]model.DemandForecast, error) {
	q := repository.Query{}.OrderBy("forecast_date", false).Take(limit)
	return listAtLocation(ctx, scope.Resolve(actor), at, q, s.repo.List, func(f model.DemandForecast) Location {
		return Location{ID: f.LocationID, Type: f.LocationType}
	})
}

// ── Transfers ────────────────────────────────────────────────────────────────

// RecentTransfers is how many transfer requests a location view shows.
const RecentTransfers = 10

// TransferFilter narrows a transfer listing.
type TransferFilter struct {
	At        *Location
	Direction Direction
	Limit     int
}

type TransferService interface {
	ListRequests(ctx context.Context, actor scope.Actor, f TransferFilter) ([]model.TransferRequest, error)
	ListLogs(ctx context.Context, actor scope.Actor, f TransferFilter) ([]model.TransferLog, error)
}

type transferService struct {
	repo repository.TransferRepository
}

func NewTransferService(repo repository.TransferRepository) TransferService {
	return &transferService{repo: repo}
}

func (s *transferService) ListRequests(ctx context.Context, actor scope.Actor, f TransferFilter) ([]model.TransferRequest, error) {
	q := repository.Query{}.OrderBy("created_at", true).Take(f.Limit)
	return listByEndpoint(ctx, scope.Resolve(actor), f.At, f.Direction, q, s.repo.ListRequests,
		func(t model.TransferRequest) edge {
			return edge{t.FromLocationID, t.ToLocationID, t.FromLocationType, t.ToLocationType}
		},
		func(t model.TransferRequest) uuid.UUID { return t.ID },
		func(a, b model.TransferRequest) bool { return newer(a.CreatedAt, b.CreatedAt) },
	)
}

func (s *transferService) ListLogs(ctx context.Context, actor scope.Actor, f TransferFilter) ([]model.TransferLog, error) {
	q := repository.Query{}.OrderBy("completed_at", true).Take(f.Limit)
	return listByEndpoint(ctx, scope.Resolve(actor), f.At, f.Direction, q, s.repo.ListLogs,
		func(t model.TransferLog) edge {
			return edge{t.FromLocationID, t.ToLocationID, t.FromLocationType, t.ToLocationType}
		},
		func(t model.TransferLog) uuid.UUID { return t.ID },
		func(a, b model.TransferLog) bool { return newer(a.CompletedAt, b.CompletedAt) },
	)
}

func newer(a, b time.Time) bool { return a.After(b) }

// ── Suggestions ──────────────────────────────────────────────────────────────

type SuggestionService interface {
	// List returns suggestions newest first. Unless suggestions are globally
	// visible, an actor only sees those with an endpoint in its scope.
	List(ctx context.Context, actor scope.Actor) ([]model.Suggestion, error)
}

type suggestionService struct {
	repo          repository.SuggestionRepository
	globalVisible bool
}

func NewSuggestionService(repo repository.SuggestionRepository, globallyVisible bool) SuggestionService {
	return &suggestionService{repo: repo, globalVisible: globallyVisible}
}

func (s *suggestionService) List(ctx context.Context, actor scope.Actor) ([]model.Suggestion, error) {
	sc := scope.Resolve(actor)
	q := repository.Query{}.OrderBy("created_at", true)
	if s.globalVisible {
		if sc.Denied() {
			return []model.Suggestion{}, nil
		}
		return s.repo.List(ctx, q)
	}
	return listByEndpoint(ctx, sc, nil, DirectionAny, q, s.repo.List,
		suggestionEdge,
		func(x model.Suggestion) uuid.UUID { return x.ID },
		func(a, b model.Suggestion) bool { return newer(a.CreatedAt, b.CreatedAt) },
	)
}

func suggestionEdge(x model.Suggestion) edge {
	return edge{x.FromLocationID, x.ToLocationID, x.FromLocationType, x.ToLocationType}
}

// ── Locations ────────────────────────────────────────────────────────────────

type LocationService interface {
	// List returns every store and warehouse, ordered by name. Location
	// names are reference data visible to every authenticated actor.
	List(ctx context.Context) ([]model.Store, []model.Warehouse, error)
	Stores(ctx context.Context) ([]model.Store, error)
	Warehouses(ctx context.Context) ([]model.Warehouse, error)
	Exists(ctx context.Context, loc Location) error
}

type locationService struct {
	repo repository.LocationRepository
}

func NewLocationService(repo repository.LocationRepository) LocationService {
	return &locationService{repo: repo}
}

func (s *locationService) List(ctx context.Context) ([]model.Store, []model.Warehouse, error) {
	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, nil, err
	}
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, nil, err
	}
	return stores, warehouses, nil
}

func (s *locationService) Stores(ctx context.Context) ([]model.Store, error) {
	return s.repo.ListStores(ctx)
}

func (s *locationService) Warehouses(ctx context.Context) ([]model.Warehouse, error) {
	return s.repo.ListWarehouses(ctx)
}

// Exists returns apperr.ErrNotFound when loc does not name a known location.
func (s *locationService) Exists(ctx context.Context, loc Location) error {
	switch loc.Type {
	case model.LocationStore:
		_, err := s.repo.FindStore(ctx, loc.ID)
		return err
	case model.LocationWarehouse:
		_, err := s.repo.FindWarehouse(ctx, loc.ID)
		return err
	default:
		return errUnknownType(loc.Type)
	}
}
