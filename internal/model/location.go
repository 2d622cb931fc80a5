package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LocationType is the closed tag distinguishing the two location variants.
// Rows are scanned as-is and validated by the repository, which quarantines
// anything that is not a known tag instead of casting it.
type LocationType string

const (
	LocationStore     LocationType = "store"
	LocationWarehouse LocationType = "warehouse"
)

// Valid reports whether t is one of the known location tags.
func (t LocationType) Valid() bool {
	return t == LocationStore || t == LocationWarehouse
}

// ParseLocationType converts an external string into a LocationType.
func ParseLocationType(s string) (LocationType, error) {
	t := LocationType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown location type %q", s)
	}
	return t, nil
}

// Scan implements sql.Scanner.
func (t *LocationType) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*t = LocationType(v)
	case []byte:
		*t = LocationType(v)
	case nil:
		*t = ""
	default:
		return fmt.Errorf("location type: unsupported scan type %T", value)
	}
	return nil
}

// Value implements driver.Valuer. Unknown tags are never written.
func (t LocationType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("location type: refusing to write %q", string(t))
	}
	return string(t), nil
}

// Store is a retail location.
type Store struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Location    string     `gorm:"not null" json:"location"`
	Address     *string    `json:"address,omitempty"`
	ManagerID   *uuid.UUID `gorm:"type:uuid" json:"manager_id,omitempty"`
	MaxCapacity int        `gorm:"not null;default:1000" json:"max_capacity"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Store) TableName() string { return "stores" }

// Warehouse is a distribution location. Its id space is disjoint from stores.
type Warehouse struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name                  string     `gorm:"not null" json:"name"`
	Location              string     `gorm:"not null" json:"location"`
	Address               *string    `json:"address,omitempty"`
	ManagerID             *uuid.UUID `gorm:"type:uuid" json:"manager_id,omitempty"`
	MaxCapacity           int        `gorm:"not null;default:10000" json:"max_capacity"`
	TemperatureControlled *bool      `json:"temperature_controlled,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (Warehouse) TableName() string { return "warehouses" }
