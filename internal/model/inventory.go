package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is the stock of one SKU at one location.
// The natural key is (LocationID, LocationType, SKU); ID is the surrogate.
type InventoryItem struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	LocationID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_inventory_location" json:"location_id"`
	LocationType LocationType     `gorm:"type:varchar(16);not null;index:idx_inventory_location" json:"location_type"`
	SKU          string           `gorm:"column:sku;not null" json:"sku"`
	ProductName  string           `gorm:"not null" json:"product_name"`
	Category     string           `gorm:"not null" json:"category"`
	CurrentStock int              `gorm:"not null;default:0" json:"current_stock"`
	MinThreshold int              `gorm:"not null;default:10" json:"min_threshold"`
	MaxCapacity  int              `gorm:"not null;default:100" json:"max_capacity"`
	UnitCost     *decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_cost,omitempty"`
	LastUpdated  time.Time        `gorm:"not null;default:now()" json:"last_updated"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (InventoryItem) TableName() string { return "inventory" }

// DemandForecast is produced externally and only read here.
type DemandForecast struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	LocationID      uuid.UUID    `gorm:"type:uuid;not null" json:"location_id"`
	LocationType    LocationType `gorm:"type:varchar(16);not null" json:"location_type"`
	SKU             string       `gorm:"column:sku;not null" json:"sku"`
	ForecastDate    time.Time    `gorm:"type:date;not null" json:"forecast_date"`
	PredictedDemand int          `gorm:"not null" json:"predicted_demand"`
	ActualDemand    *int         `json:"actual_demand,omitempty"`
	ConfidenceScore *float64     `json:"confidence_score,omitempty"`
	SeasonalFactor  *float64     `json:"seasonal_factor,omitempty"`
	WeatherFactor   *float64     `json:"weather_factor,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

func (DemandForecast) TableName() string { return "demand_forecasts" }
