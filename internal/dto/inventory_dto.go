package dto

import (
	"chainpilot/internal/model"
)

// AdjustStockRequest moves current_stock by Delta units. The store applies
// the change atomically and rejects results outside [0, max_stock].
type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required,min=-1000000,max=1000000"`
}

type LocationsResponse struct {
	Stores     []model.Store     `json:"stores"`
	Warehouses []model.Warehouse `json:"warehouses"`
}
