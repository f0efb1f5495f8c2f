package models

import "time"

// ActivityAction tags the kind of administrative mutation recorded.
type ActivityAction string

const (
	ActivityCreated      ActivityAction = "created"
	ActivityApproved     ActivityAction = "approved"
	ActivityDenied       ActivityAction = "denied"
	ActivityDeleted      ActivityAction = "deleted"
	ActivityBulkApproved ActivityAction = "bulk_approved"
)

// ActivityRecord captures one workflow mutation for the admin activity feed.
type ActivityRecord struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	UserID        string         `json:"user_id"`
	Action        ActivityAction `json:"action"`
	Description   string         `json:"description"`
	ReservationID *int64         `json:"reservation_id,omitempty"`
}
