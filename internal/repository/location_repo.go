package repository

import (
	"context"
	"errors"
	"time"

	"chainpilot/internal/apperr"
	"chainpilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationRepository reads stores and warehouses. The two variants live in
// separate tables and are never merged at this layer.
type LocationRepository interface {
	ListStores(ctx context.Context) ([]model.Store, error)
	ListWarehouses(ctx context.Context) ([]model.Warehouse, error)
	FindStore(ctx context.Context, id uuid.UUID) (*model.Store, error)
	FindWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
}

type locationRepo struct{ base }

func NewLocationRepository(db *gorm.DB, timeout time.Duration) LocationRepository {
	return &locationRepo{newBase(db, timeout)}
}

func (r *locationRepo) ListStores(ctx context.Context) ([]model.Store, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var stores []model.Store
	if err := db.Order("name ASC").Find(&stores).Error; err != nil {
		return nil, apperr.Fetch("stores.list", err)
	}
	return stores, nil
}

func (r *locationRepo) ListWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var warehouses []model.Warehouse
	if err := db.Order("name ASC").Find(&warehouses).Error; err != nil {
		return nil, apperr.Fetch("warehouses.list", err)
	}
	return warehouses, nil
}

func (r *locationRepo) FindStore(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var s model.Store
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Fetch("stores.find", err)
	}
	return &s, nil
}

func (r *locationRepo) FindWarehouse(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var w model.Warehouse
	if err := db.Where("id = ?", id).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Fetch("warehouses.find", err)
	}
	return &w, nil
}
