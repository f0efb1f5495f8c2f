package models

import "time"

// Building identifies the campus building a classroom belongs to.
type Building string

const (
	BuildingSST Building = "SST"
	BuildingTYD Building = "TYD"
)

// Valid reports whether the building is one of the known campus buildings.
func (b Building) Valid() bool {
	return b == BuildingSST || b == BuildingTYD
}

// RoomStatus is the operational status of a classroom.
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusUnavailable RoomStatus = "UNAVAILABLE"
)

// UtilityState tracks whether a piece of room equipment works.
type UtilityState string

const (
	UtilityWorking UtilityState = "WORKING"
	UtilityFaulty  UtilityState = "FAULTY"
)

// Utility names tracked by facility staff.
const (
	UtilityProjector      = "projector"
	UtilityAirConditioner = "air_conditioner"
	UtilitySmartBoard     = "smart_board"
	UtilityLighting       = "lighting"
)

// TrackedUtilities lists every utility a room reports on.
var TrackedUtilities = []string{UtilityProjector, UtilityAirConditioner, UtilitySmartBoard, UtilityLighting}

// RoomNote is a free-text remark left by facility staff.
type RoomNote struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Room is a schedulable classroom.
type Room struct {
	ID        string                  `json:"id"`
	Building  Building                `json:"building"`
	Name      string                  `json:"name"`
	Seats     int                     `json:"seats"`
	Status    RoomStatus              `json:"status"`
	Utilities map[string]UtilityState `json:"utilities"`
	Notes     []RoomNote              `json:"notes"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// IsOperational reports whether the room can take bookings.
func (r Room) IsOperational() bool {
	return r.Status == RoomStatusAvailable
}

// Clone returns a deep copy of the room.
func (r Room) Clone() Room {
	out := r
	if r.Utilities != nil {
		out.Utilities = make(map[string]UtilityState, len(r.Utilities))
		for k, v := range r.Utilities {
			out.Utilities[k] = v
		}
	}
	if r.Notes != nil {
		out.Notes = append([]RoomNote(nil), r.Notes...)
	}
	return out
}
