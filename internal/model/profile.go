package model

import (
	"time"

	"github.com/google/uuid"
)

// Role values carried by profiles and access tokens.
const (
	RoleStoreManager     = "store_manager"
	RoleWarehouseManager = "warehouse_manager"
	RoleAdmin            = "admin"
)

// Profile binds a user to a role and at most one location.
// LinkedStoreID and LinkedWarehouseID are mutually exclusive, and both are
// nil for admins.
type Profile struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string     `gorm:"not null" json:"email"`
	Role              string     `gorm:"type:varchar(32);not null" json:"role"`
	LinkedStoreID     *uuid.UUID `gorm:"type:uuid" json:"linked_store_id"`
	LinkedWarehouseID *uuid.UUID `gorm:"type:uuid" json:"linked_warehouse_id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
