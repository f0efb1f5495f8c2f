package dto

import (
	"time"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// ActivityResponse serialises an activity record.
type ActivityResponse struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	UserID        string    `json:"user_id"`
	Action        string    `json:"action"`
	Description   string    `json:"description"`
	ReservationID *int64    `json:"reservation_id,omitempty"`
}

// NewActivityResponse converts an activity record into its response form.
func NewActivityResponse(record models.ActivityRecord) ActivityResponse {
	return ActivityResponse{
		ID:            record.ID,
		Timestamp:     record.Timestamp,
		UserID:        record.UserID,
		Action:        string(record.Action),
		Description:   record.Description,
		ReservationID: record.ReservationID,
	}
}

// ActivityListResponse wraps the newest activity records.
type ActivityListResponse struct {
	Items []ActivityResponse `json:"items"`
}
