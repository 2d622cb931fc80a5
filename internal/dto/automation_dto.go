package dto

import "time"

type AutomationResponse struct {
	Message     string    `json:"message"`
	StatusCode  int       `json:"status_code"`
	TriggeredAt time.Time `json:"triggered_at"`
}
