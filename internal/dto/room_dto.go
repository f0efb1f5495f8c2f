package dto

import (
	"time"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// RoomStatusUpdateRequest changes a room's operational status.
type RoomStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE UNAVAILABLE"`
}

// RoomUtilityUpdateRequest changes the state of one tracked utility.
type RoomUtilityUpdateRequest struct {
	Utility string `json:"utility" validate:"required,oneof=projector air_conditioner smart_board lighting"`
	State   string `json:"state" validate:"required,oneof=WORKING FAULTY"`
}

// RoomNoteRequest appends a facility note to a room.
type RoomNoteRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// RoomNoteResponse serialises a room note.
type RoomNoteResponse struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomResponse serialises a room.
type RoomResponse struct {
	ID        string             `json:"id"`
	Building  string             `json:"building"`
	Name      string             `json:"name"`
	Seats     int                `json:"seats"`
	Status    string             `json:"status"`
	Utilities map[string]string  `json:"utilities"`
	Notes     []RoomNoteResponse `json:"notes"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewRoomResponse converts a room into its response form.
func NewRoomResponse(room models.Room) RoomResponse {
	utilities := make(map[string]string, len(room.Utilities))
	for name, state := range room.Utilities {
		utilities[name] = string(state)
	}
	notes := make([]RoomNoteResponse, 0, len(room.Notes))
	for _, note := range room.Notes {
		notes = append(notes, RoomNoteResponse{Text: note.Text, Author: note.Author, CreatedAt: note.CreatedAt})
	}
	return RoomResponse{
		ID:        room.ID,
		Building:  string(room.Building),
		Name:      room.Name,
		Seats:     room.Seats,
		Status:    string(room.Status),
		Utilities: utilities,
		Notes:     notes,
		UpdatedAt: room.UpdatedAt,
	}
}

// RoomSeedResponse reports how many rooms were added to the inventory.
type RoomSeedResponse struct {
	Added int `json:"added"`
}

// BoardEvent is pushed to room board websocket clients.
type BoardEvent struct {
	Type        string               `json:"type"`
	Room        *RoomResponse        `json:"room,omitempty"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}
