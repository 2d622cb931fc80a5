package model

import (
	"time"

	"github.com/google/uuid"
)

// TransferRequest is a movement already committed to fulfillment.
// Status is kept as the producer's free text ("pending", "in_transit",
// "completed", ...) until the full set of values is pinned down.
type TransferRequest struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FromLocationID   uuid.UUID    `gorm:"type:uuid;not null" json:"from_location_id"`
	FromLocationType LocationType `gorm:"type:varchar(16);not null" json:"from_location_type"`
	ToLocationID     uuid.UUID    `gorm:"type:uuid;not null" json:"to_location_id"`
	ToLocationType   LocationType `gorm:"type:varchar(16);not null" json:"to_location_type"`
	SKU              string       `gorm:"column:sku;not null" json:"sku"`
	Quantity         int          `gorm:"not null" json:"quantity"`
	Status           string       `gorm:"not null;default:'pending'" json:"status"`
	Priority         string       `gorm:"not null;default:'medium'" json:"priority"`
	ExpectedArrival  *time.Time   `json:"expected_arrival,omitempty"`
	ActualArrival    *time.Time   `json:"actual_arrival,omitempty"`
	Notes            *string      `json:"notes,omitempty"`
	RequestedBy      *uuid.UUID   `gorm:"type:uuid" json:"requested_by,omitempty"`
	ApprovedBy       *uuid.UUID   `gorm:"type:uuid" json:"approved_by,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (TransferRequest) TableName() string { return "transfer_requests" }

// TransferLog is the immutable audit record of one transfer leg.
type TransferLog struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FromLocationID    uuid.UUID    `gorm:"type:uuid;not null" json:"from_location_id"`
	FromLocationType  LocationType `gorm:"type:varchar(16);not null" json:"from_location_type"`
	ToLocationID      uuid.UUID    `gorm:"type:uuid;not null" json:"to_location_id"`
	ToLocationType    LocationType `gorm:"type:varchar(16);not null" json:"to_location_type"`
	SKU               string       `gorm:"column:sku;not null" json:"sku"`
	Quantity          int          `gorm:"not null" json:"quantity"`
	Status            string       `gorm:"not null" json:"status"`
	Notes             *string      `json:"notes,omitempty"`
	CompletedAt       time.Time    `gorm:"not null;default:now()" json:"completed_at"`
	CompletedBy       *uuid.UUID   `gorm:"type:uuid" json:"completed_by,omitempty"`
	TransferRequestID *uuid.UUID   `gorm:"type:uuid" json:"transfer_request_id,omitempty"`
}

func (TransferLog) TableName() string { return "transfer_logs" }
