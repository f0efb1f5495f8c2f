package models

import "time"

// ReservationStatus is the review state of a reservation.
type ReservationStatus string

const (
	ReservationPending  ReservationStatus = "PENDING"
	ReservationApproved ReservationStatus = "APPROVED"
	ReservationDenied   ReservationStatus = "DENIED"
)

// Reservation is a request, or an admin-granted booking, to occupy a room for a window on one date.
type Reservation struct {
	ID           int64             `json:"id"`
	RequesterID  string            `json:"requester_id"`
	RoomID       string            `json:"room_id"`
	Date         string            `json:"date"`
	StartTime    string            `json:"start_time"`
	EndTime      string            `json:"end_time"`
	Purpose      string            `json:"purpose"`
	Status       ReservationStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	ReviewedBy   *string           `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty"`
	AdminCreated bool              `json:"admin_created,omitempty"`
}

// Blocks reports whether the reservation holds its slot. Denied reservations never do.
func (r Reservation) Blocks() bool {
	return r.Status == ReservationPending || r.Status == ReservationApproved
}

// Clone returns a copy that shares no pointers with the receiver.
func (r Reservation) Clone() Reservation {
	out := r
	if r.ReviewedBy != nil {
		v := *r.ReviewedBy
		out.ReviewedBy = &v
	}
	if r.ReviewedAt != nil {
		v := *r.ReviewedAt
		out.ReviewedAt = &v
	}
	return out
}
