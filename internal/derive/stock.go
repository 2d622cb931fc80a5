// Package derive computes the metrics presented on top of projection
// snapshots. Everything here is a pure function of its arguments.
package derive

import (
	"math"

	"chainpilot/internal/model"
	"chainpilot/internal/scope"

	"github.com/shopspring/decimal"
)

// StockClass is the coarse fill classification of an inventory item.
type StockClass string

const (
	StockCritical StockClass = "critical"
	StockLow      StockClass = "low"
	StockGood     StockClass = "good"
)

// Classification thresholds, as a percentage of max capacity (inclusive).
const (
	CriticalPercent = 20.0
	LowPercent      = 50.0
)

// Level is the fill percentage of an item and its class.
type Level struct {
	Percentage float64    `json:"percentage"`
	Class      StockClass `json:"class"`
}

// StockLevel classifies an item by current_stock / max_capacity. An item
// with no capacity is reported as critical at 0%.
func StockLevel(item model.InventoryItem) Level {
	if item.MaxCapacity <= 0 {
		return Level{Percentage: 0, Class: StockCritical}
	}
	pct := float64(item.CurrentStock) / float64(item.MaxCapacity) * 100
	switch {
	case pct <= CriticalPercent:
		return Level{Percentage: pct, Class: StockCritical}
	case pct <= LowPercent:
		return Level{Percentage: pct, Class: StockLow}
	default:
		return Level{Percentage: pct, Class: StockGood}
	}
}

// IsLowStock reports whether the item is at or below its reorder threshold.
func IsLowStock(item model.InventoryItem) bool {
	return item.CurrentStock <= item.MinThreshold
}

// LowStockItems keeps the items for which IsLowStock holds, in order.
func LowStockItems(items []model.InventoryItem) []model.InventoryItem {
	out := make([]model.InventoryItem, 0)
	for _, it := range items {
		if IsLowStock(it) {
			out = append(out, it)
		}
	}
	return out
}

// Totals aggregates a set of inventory rows.
type Totals struct {
	TotalStock    int             `json:"total_stock"`
	TotalCapacity int             `json:"total_capacity"`
	LowStockCount int             `json:"low_stock_count"`
	ItemCount     int             `json:"item_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// AggregateTotals sums the rows visible to sc. Rows outside sc are ignored
// even if a caller passes them in. Rows without a unit cost add nothing to
// TotalValue.
func AggregateTotals(items []model.InventoryItem, sc scope.Scope) Totals {
	t := Totals{TotalValue: decimal.Zero}
	for _, it := range items {
		if !sc.Allows(it.LocationID, it.LocationType) {
			continue
		}
		t.ItemCount++
		t.TotalStock += it.CurrentStock
		if it.MaxCapacity > 0 {
			t.TotalCapacity += it.MaxCapacity
		}
		if IsLowStock(it) {
			t.LowStockCount++
		}
		if it.UnitCost != nil {
			t.TotalValue = t.TotalValue.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.CurrentStock))))
		}
	}
	return t
}

// Utilization splits a capacity into used and available parts.
type Utilization struct {
	Used       int     `json:"used"`
	Available  int     `json:"available"`
	Percentage float64 `json:"percentage"`
}

// CapacityUtilization is totalStock / totalCapacity as a whole percentage.
// A non-positive capacity yields 0%; Available never goes negative.
func CapacityUtilization(totalStock, totalCapacity int) Utilization {
	if totalCapacity <= 0 {
		return Utilization{Used: totalStock}
	}
	available := totalCapacity - totalStock
	if available < 0 {
		available = 0
	}
	return Utilization{
		Used:       totalStock,
		Available:  available,
		Percentage: math.Round(float64(totalStock) / float64(totalCapacity) * 100),
	}
}
