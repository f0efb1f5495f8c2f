package models

// BookingDocument is the whole persisted state: room inventory, reservations and the
// activity feed. Persistence collaborators load and save it as a single document.
type BookingDocument struct {
	Rooms        []Room           `json:"rooms"`
	Reservations []Reservation    `json:"reservations"`
	Activity     []ActivityRecord `json:"activity"`
}

// Clone returns a deep copy so a mutation can be staged without touching the original.
func (d BookingDocument) Clone() BookingDocument {
	out := BookingDocument{
		Rooms:        make([]Room, len(d.Rooms)),
		Reservations: make([]Reservation, len(d.Reservations)),
		Activity:     make([]ActivityRecord, len(d.Activity)),
	}
	for i, room := range d.Rooms {
		out.Rooms[i] = room.Clone()
	}
	for i, reservation := range d.Reservations {
		out.Reservations[i] = reservation.Clone()
	}
	for i, record := range d.Activity {
		out.Activity[i] = record
		if record.ReservationID != nil {
			id := *record.ReservationID
			out.Activity[i].ReservationID = &id
		}
	}
	return out
}
