package dto

import (
	"time"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// ReservationCreateRequest is the payload a requester submits.
type ReservationCreateRequest struct {
	RoomID    string `json:"room_id" validate:"required,max=32"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,end_clock"`
	Purpose   string `json:"purpose" validate:"omitempty,max=500"`
}

// AdminReservationCreateRequest books a room directly on behalf of a requester.
type AdminReservationCreateRequest struct {
	ReservationCreateRequest
	RequesterID string `json:"requester_id" validate:"omitempty,max=64"`
}

// ReservationReviewRequest carries a reviewer's decision.
type ReservationReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve deny approved denied"`
}

// ReservationListRequest filters the admin reservation listing.
type ReservationListRequest struct {
	Status string
	Date   string
	RoomID string
}

// ReservationResponse serialises a reservation.
type ReservationResponse struct {
	ID           int64      `json:"id"`
	RequesterID  string     `json:"requester_id"`
	RoomID       string     `json:"room_id"`
	RoomName     string     `json:"room_name,omitempty"`
	Date         string     `json:"date"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	Purpose      string     `json:"purpose"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ReviewedBy   *string    `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	AdminCreated bool       `json:"admin_created"`
}

// NewReservationResponse converts a reservation into its response form.
func NewReservationResponse(reservation models.Reservation, roomName string) ReservationResponse {
	return ReservationResponse{
		ID:           reservation.ID,
		RequesterID:  reservation.RequesterID,
		RoomID:       reservation.RoomID,
		RoomName:     roomName,
		Date:         reservation.Date,
		StartTime:    reservation.StartTime,
		EndTime:      reservation.EndTime,
		Purpose:      reservation.Purpose,
		Status:       string(reservation.Status),
		CreatedAt:    reservation.CreatedAt,
		ReviewedBy:   reservation.ReviewedBy,
		ReviewedAt:   reservation.ReviewedAt,
		AdminCreated: reservation.AdminCreated,
	}
}

// ReservationListResponse wraps a filtered listing with per-status counts.
type ReservationListResponse struct {
	Items  []ReservationResponse `json:"items"`
	Total  int                   `json:"total"`
	Counts map[string]int        `json:"counts"`
}

// BulkApproveResponse reports how many pending reservations were approved.
type BulkApproveResponse struct {
	Approved int `json:"approved"`
}

// DeleteReservationResponse reports whether a reservation was removed.
type DeleteReservationResponse struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// TimeWindow is an "HH:MM" interval.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilityResponse answers an availability query.
type AvailabilityResponse struct {
	RoomID      string       `json:"room_id"`
	Date        string       `json:"date"`
	StartTime   string       `json:"start_time,omitempty"`
	EndTime     string       `json:"end_time,omitempty"`
	Available   *bool        `json:"available,omitempty"`
	FreeWindows []TimeWindow `json:"free_windows"`
}

// AdminDashboardResponse summarises the review queue.
type AdminDashboardResponse struct {
	Counts         map[string]int     `json:"counts"`
	RecentActivity []ActivityResponse `json:"recent_activity"`
}
