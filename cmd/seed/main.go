// cmd/seed/main.go loads a small demo chain (two stores, one warehouse) and
// prints a signed access token for each demo profile.
// Usage: go run ./cmd/seed
package main

import (
	"fmt"
	"os"
	"time"

	"chainpilot/internal/config"
	"chainpilot/internal/infra"
	"chainpilot/internal/middleware"
	"chainpilot/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	downtownID  = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	harborID    = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	centralID   = uuid.MustParse("33333333-3333-4333-8333-333333333333")
	adminID     = uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa")
	storeMgrID  = uuid.MustParse("bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb")
	whMgrID     = uuid.MustParse("cccccccc-cccc-4ccc-8ccc-cccccccccccc")
	tokenExpiry = 24 * time.Hour
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	if err := db.Transaction(seed); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Msg("demo data loaded")

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, skipping demo tokens")
		return
	}
	for _, p := range profiles() {
		tok, err := sign(cfg.JWTSecret, p)
		if err != nil {
			log.Fatal().Err(err).Str("email", p.Email).Msg("signing token")
		}
		fmt.Printf("%-24s %s\n", p.Email, tok)
	}
}

func profiles() []model.Profile {
	return []model.Profile{
		{ID: adminID, Email: "admin@chainpilot.dev", Role: model.RoleAdmin},
		{ID: storeMgrID, Email: "downtown@chainpilot.dev", Role: model.RoleStoreManager, LinkedStoreID: &downtownID},
		{ID: whMgrID, Email: "central@chainpilot.dev", Role: model.RoleWarehouseManager, LinkedWarehouseID: &centralID},
	}
}

func sign(secret string, p model.Profile) (string, error) {
	now := time.Now()
	claims := middleware.JWTClaims{
		Email:             p.Email,
		Role:              p.Role,
		LinkedStoreID:     p.LinkedStoreID,
		LinkedWarehouseID: p.LinkedWarehouseID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func seed(tx *gorm.DB) error {
	upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})

	stores := []model.Store{
		{ID: downtownID, Name: "Downtown", Location: "Main St 100", MaxCapacity: 1000},
		{ID: harborID, Name: "Harbor", Location: "Pier 7", MaxCapacity: 800},
	}
	if err := upsert.Create(&stores).Error; err != nil {
		return fmt.Errorf("stores: %w", err)
	}
	controlled := true
	warehouses := []model.Warehouse{
		{ID: centralID, Name: "Central DC", Location: "Industrial Park 3", MaxCapacity: 10000, TemperatureControlled: &controlled},
	}
	if err := upsert.Create(&warehouses).Error; err != nil {
		return fmt.Errorf("warehouses: %w", err)
	}
	ps := profiles()
	if err := upsert.Create(&ps).Error; err != nil {
		return fmt.Errorf("profiles: %w", err)
	}

	cost := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	items := []model.InventoryItem{
		{LocationID: downtownID, LocationType: model.LocationStore, SKU: "MILK-1L", ProductName: "Milk 1L", Category: "dairy", CurrentStock: 8, MinThreshold: 20, MaxCapacity: 120, UnitCost: cost("1.10")},
		{LocationID: downtownID, LocationType: model.LocationStore, SKU: "BREAD-WH", ProductName: "Wholewheat Bread", Category: "bakery", CurrentStock: 45, MinThreshold: 15, MaxCapacity: 60, UnitCost: cost("2.40")},
		{LocationID: harborID, LocationType: model.LocationStore, SKU: "MILK-1L", ProductName: "Milk 1L", Category: "dairy", CurrentStock: 70, MinThreshold: 20, MaxCapacity: 120, UnitCost: cost("1.10")},
		{LocationID: centralID, LocationType: model.LocationWarehouse, SKU: "MILK-1L", ProductName: "Milk 1L", Category: "dairy", CurrentStock: 1800, MinThreshold: 300, MaxCapacity: 4000, UnitCost: cost("0.95")},
		{LocationID: centralID, LocationType: model.LocationWarehouse, SKU: "BREAD-WH", ProductName: "Wholewheat Bread", Category: "bakery", CurrentStock: 250, MinThreshold: 200, MaxCapacity: 1500, UnitCost: cost("1.90")},
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location_id"}, {Name: "location_type"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_stock", "min_threshold", "max_capacity", "unit_cost"}),
	}).Create(&items).Error; err != nil {
		return fmt.Errorf("inventory: %w", err)
	}

	// Event rows have no natural key; load them once.
	var existing int64
	if err := tx.Model(&model.Suggestion{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("count suggestions: %w", err)
	}
	if existing > 0 {
		return nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var forecasts []model.DemandForecast
	for day := 0; day < 10; day++ {
		confidence := 0.8
		forecasts = append(forecasts, model.DemandForecast{
			LocationID:      downtownID,
			LocationType:    model.LocationStore,
			SKU:             "MILK-1L",
			ForecastDate:    today.AddDate(0, 0, day),
			PredictedDemand: 30 + day%3*5,
			ConfidenceScore: &confidence,
		})
	}
	if err := tx.Create(&forecasts).Error; err != nil {
		return fmt.Errorf("forecasts: %w", err)
	}

	reason := "Downtown milk below threshold; Central DC holds 45% of capacity."
	score := 0.87
	suggestions := []model.Suggestion{
		{
			Message:          "Move 60 units of Milk 1L from Central DC to Downtown",
			FromLocationID:   centralID,
			FromLocationType: model.LocationWarehouse,
			ToLocationID:     downtownID,
			ToLocationType:   model.LocationStore,
			SKU:              "MILK-1L",
			Quantity:         60,
			Status:           model.SuggestionPending,
			Priority:         model.PriorityHigh,
			SuggestedBy:      model.SuggestedByAI,
			ConfidenceScore:  &score,
			Reasoning:        &reason,
		},
		{
			Message:          "Move 20 units of Milk 1L from Harbor to Downtown",
			FromLocationID:   harborID,
			FromLocationType: model.LocationStore,
			ToLocationID:     downtownID,
			ToLocationType:   model.LocationStore,
			SKU:              "MILK-1L",
			Quantity:         20,
			Status:           model.SuggestionPending,
			Priority:         model.PriorityMedium,
			SuggestedBy:      model.SuggestedByAI,
		},
	}
	if err := tx.Create(&suggestions).Error; err != nil {
		return fmt.Errorf("suggestions: %w", err)
	}

	eta := today.AddDate(0, 0, 2)
	transfers := []model.TransferRequest{
		{
			FromLocationID:   centralID,
			FromLocationType: model.LocationWarehouse,
			ToLocationID:     harborID,
			ToLocationType:   model.LocationStore,
			SKU:              "BREAD-WH",
			Quantity:         40,
			Status:           "in_transit",
			Priority:         "medium",
			ExpectedArrival:  &eta,
			RequestedBy:      &adminID,
		},
	}
	if err := tx.Create(&transfers).Error; err != nil {
		return fmt.Errorf("transfers: %w", err)
	}
	return nil
}
