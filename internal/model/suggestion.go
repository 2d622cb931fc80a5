package model

import (
	"time"

	"github.com/google/uuid"
)

// SuggestionStatus is the workflow state of a suggestion.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s SuggestionStatus) Terminal() bool {
	return s == SuggestionApproved || s == SuggestionRejected
}

// Priority of a suggestion, as assigned by the producer.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// SuggestedBy identifies the producer kind.
type SuggestedBy string

const (
	SuggestedByAI     SuggestedBy = "ai"
	SuggestedByManual SuggestedBy = "manual"
)

// Suggestion is a proposed transfer awaiting a human decision.
// Created as pending by an external producer; approved and rejected are terminal.
type Suggestion struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Message          string           `gorm:"not null" json:"message"`
	FromLocationID   uuid.UUID        `gorm:"type:uuid;not null" json:"from_location_id"`
	FromLocationType LocationType     `gorm:"type:varchar(16);not null" json:"from_location_type"`
	ToLocationID     uuid.UUID        `gorm:"type:uuid;not null" json:"to_location_id"`
	ToLocationType   LocationType     `gorm:"type:varchar(16);not null" json:"to_location_type"`
	SKU              string           `gorm:"column:sku;not null" json:"sku"`
	Quantity         int              `gorm:"not null" json:"quantity"`
	Status           SuggestionStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Priority         Priority         `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`
	SuggestedBy      SuggestedBy      `gorm:"type:varchar(16);not null;default:'ai'" json:"suggested_by"`
	ConfidenceScore  *float64         `json:"confidence_score,omitempty"`
	Reasoning        *string          `json:"reasoning,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (Suggestion) TableName() string { return "suggestions" }
