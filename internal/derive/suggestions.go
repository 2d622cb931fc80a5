package derive

import (
	"chainpilot/internal/model"
)

// PendingSuggestions keeps the suggestions still awaiting a decision.
func PendingSuggestions(items []model.Suggestion) []model.Suggestion {
	out := make([]model.Suggestion, 0)
	for _, s := range items {
		if s.Status == model.SuggestionPending {
			out = append(out, s)
		}
	}
	return out
}

// ProcessedSuggestions keeps the suggestions already approved or rejected.
func ProcessedSuggestions(items []model.Suggestion) []model.Suggestion {
	out := make([]model.Suggestion, 0)
	for _, s := range items {
		if s.Status.Terminal() {
			out = append(out, s)
		}
	}
	return out
}

// SuggestionCounts tallies suggestions by status.
type SuggestionCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func CountSuggestions(items []model.Suggestion) SuggestionCounts {
	var c SuggestionCounts
	for _, s := range items {
		switch s.Status {
		case model.SuggestionPending:
			c.Pending++
		case model.SuggestionApproved:
			c.Approved++
		case model.SuggestionRejected:
			c.Rejected++
		}
	}
	return c
}
