package repository

import (
	"context"
	"errors"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository defines the data access contract for inventory rows.
// Services depend on this interface, not on the concrete GORM implementation.
type InventoryRepository interface {
	List(ctx context.Context, q Query) ([]model.InventoryItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	// AdjustStock applies delta in a single UPDATE guarded by
	// 0 <= current_stock + delta <= max_capacity. It never reads first.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.InventoryItem, error)
}

type inventoryRepo struct{ base }

func NewInventoryRepository(db *gorm.DB, timeout time.Duration) InventoryRepository {
	return &inventoryRepo{newBase(db, timeout)}
}

func inventoryTags(i model.InventoryItem) []model.LocationType {
	return []model.LocationType{i.LocationType}
}

func inventoryID(i model.InventoryItem) string { return i.ID.String() }

func (r *inventoryRepo) List(ctx context.Context, q Query) ([]model.InventoryItem, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var items []model.InventoryItem
	if err := apply(db.Model(&model.InventoryItem{}), q).Find(&items).Error; err != nil {
		return nil, apperr.Fetch("inventory.list", err)
	}
	return quarantine(model.TableInventory, items, inventoryTags, inventoryID), nil
}

func (r *inventoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var item model.InventoryItem
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Fetch("inventory.find", err)
	}
	if !item.LocationType.Valid() {
		quarantine(model.TableInventory, []model.InventoryItem{item}, inventoryTags, inventoryID)
		return nil, apperr.ErrNotFound
	}
	return &item, nil
}

func (r *inventoryRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.InventoryItem, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var item model.InventoryItem
	res := db.Model(&item).
		Clauses(clause.Returning{}).
		Where("id = ? AND current_stock + ? >= 0 AND current_stock + ? <= max_capacity", id, delta, delta).
		Updates(map[string]interface{}{
			"current_stock": gorm.Expr("current_stock + ?", delta),
			"last_updated":  gorm.Expr("now()"),
		})
	if res.Error != nil {
		return nil, apperr.Update("inventory.adjust_stock", res.Error)
	}
	if res.RowsAffected == 0 {
		// Classify only; the write already did not happen.
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperr.Invalid("stock adjustment of %d would leave item %s outside [0, max_capacity]", delta, id)
	}
	return &item, nil
}
