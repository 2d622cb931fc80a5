package service

import (
	"context"

	"chainpilot/internal/apperr"
	"chainpilot/internal/model"
	"chainpilot/internal/notify"
	"chainpilot/internal/repository"
	"chainpilot/internal/scope"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InventoryService reads and adjusts inventory within the actor's scope.
type InventoryService interface {
	List(ctx context.Context, actor scope.Actor, at *Location) ([]model.InventoryItem, error)
	// AdjustStock applies delta atomically at the record store. The bounds
	// 0 <= current_stock <= max_capacity are enforced by the same statement.
	AdjustStock(ctx context.Context, actor scope.Actor, id uuid.UUID, delta int) (*model.InventoryItem, error)
}

type inventoryService struct {
	repo repository.InventoryRepository
	pub  notify.Publisher
}

func NewInventoryService(repo repository.InventoryRepository, pub notify.Publisher) InventoryService {
	return &inventoryService{repo: repo, pub: pub}
}

func inventoryLocation(i model.InventoryItem) Location {
	return Location{ID: i.LocationID, Type: i.LocationType}
}

func (s *inventoryService) List(ctx context.Context, actor scope.Actor, at *Location) ([]model.InventoryItem, error) {
	q := repository.Query{}.OrderBy("product_name", false)
	return listAtLocation(ctx, scope.Resolve(actor), at, q, s.repo.List, inventoryLocation)
}

func (s *inventoryService) AdjustStock(ctx context.Context, actor scope.Actor, id uuid.UUID, delta int) (*model.InventoryItem, error) {
	if delta == 0 {
		return nil, apperr.Invalid("delta must be non-zero")
	}
	sc := scope.Resolve(actor)
	if sc.Denied() {
		return nil, apperr.Scope("actor %s has no location", actor.UserID)
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sc.Require(item.LocationID, item.LocationType); err != nil {
		return nil, err
	}

	updated, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.pub, model.TableInventory)

	log.Info().
		Str("item_id", id.String()).
		Int("delta", delta).
		Int("current_stock", updated.CurrentStock).
		Str("actor", actor.UserID.String()).
		Msg("inventory: stock adjusted")
	return updated, nil
}

// publish announces a write on the bus. Failures are logged only: the change
// is already committed and the next event or refresh will catch up.
func publish(ctx context.Context, pub notify.Publisher, table string) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, notify.Event{Table: table, Op: "update"}); err != nil {
		log.Warn().Err(err).Str("table", table).Msg("notify: publish failed")
	}
}
