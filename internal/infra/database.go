package infra

import (
	"fmt"

	"chainpilot/internal/model"
	"chainpilot/internal/notify"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the record store tables, then applies the idempotent SQL patches GORM
// cannot express (check constraints, the change-notification trigger).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and applies the schema
// patches. Safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Store{},
		&model.Warehouse{},
		&model.Profile{},
		&model.InventoryItem{},
		&model.DemandForecast{},
		&model.Suggestion{},
		&model.TransferRequest{},
		&model.TransferLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// notifyFunction publishes "table X changed" on channel chainpilot_<table>.
// The payload is informational only; listeners always reload.
var notifyFunction = `
CREATE OR REPLACE FUNCTION chainpilot_notify_change() RETURNS trigger AS $$
BEGIN
  PERFORM pg_notify('` + notify.ChannelPrefix + `' || TG_TABLE_NAME,
    json_build_object('table', TG_TABLE_NAME, 'op', lower(TG_OP), 'at', now())::text);
  RETURN NULL;
END $$ LANGUAGE plpgsql`

// applySchemaPatches runs idempotent DDL statements that AutoMigrate cannot
// handle. Each statement uses IF NOT EXISTS / OR REPLACE semantics so
// re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// One row per SKU per location.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_location_sku
		    ON inventory (location_id, location_type, sku)`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_inventory_stock_bounds') THEN
		    ALTER TABLE inventory ADD CONSTRAINT chk_inventory_stock_bounds
		        CHECK (current_stock >= 0) NOT VALID;
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_suggestions_status') THEN
		    ALTER TABLE suggestions ADD CONSTRAINT chk_suggestions_status
		        CHECK (status IN ('pending', 'approved', 'rejected'));
		  END IF;
		END $$`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_created_at ON suggestions (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_transfer_requests_to ON transfer_requests (to_location_id, to_location_type)`,
		`CREATE INDEX IF NOT EXISTS idx_transfer_requests_from ON transfer_requests (from_location_id, from_location_type)`,
		notifyFunction,
	}
	for _, table := range model.WatchedTables {
		patches = append(patches,
			fmt.Sprintf(`DROP TRIGGER IF EXISTS chainpilot_notify ON %s`, table),
			fmt.Sprintf(`CREATE TRIGGER chainpilot_notify
			    AFTER INSERT OR UPDATE OR DELETE ON %s
			    FOR EACH STATEMENT EXECUTE FUNCTION chainpilot_notify_change()`, table),
		)
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
