package scheduling

import (
	"sort"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// FindConflict returns the first reservation that holds an overlapping window in the
// same room on the same date. Denied reservations and empty windows never conflict.
func FindConflict(roomID, date string, window Window, existing []models.Reservation) (models.Reservation, bool) {
	if window.Empty() {
		return models.Reservation{}, false
	}

	for _, reservation := range existing {
		if reservation.RoomID != roomID || reservation.Date != date || !reservation.Blocks() {
			continue
		}
		booked, err := ParseWindow(reservation.StartTime, reservation.EndTime)
		if err != nil {
			continue
		}
		if window.Overlaps(booked) {
			return reservation, true
		}
	}

	return models.Reservation{}, false
}

// IsAvailable reports whether the room can be booked for the window on the date.
// A room that is not operational is never available, and an empty window is never fillable.
func IsAvailable(room models.Room, date string, window Window, existing []models.Reservation) bool {
	if !room.IsOperational() || window.Empty() {
		return false
	}
	_, conflict := FindConflict(room.ID, date, window, existing)
	return !conflict
}

// FreeWindows returns the gaps between blocking reservations for the room on the date,
// bounded by the opening window. Used by the availability view.
func FreeWindows(room models.Room, date string, opening Window, existing []models.Reservation) []Window {
	if !room.IsOperational() || opening.Empty() {
		return nil
	}

	booked := make([]Window, 0)
	for _, reservation := range existing {
		if reservation.RoomID != room.ID || reservation.Date != date || !reservation.Blocks() {
			continue
		}
		w, err := ParseWindow(reservation.StartTime, reservation.EndTime)
		if err != nil || w.Empty() || !w.Overlaps(opening) {
			continue
		}
		booked = append(booked, w)
	}
	sort.Slice(booked, func(i, j int) bool { return booked[i].Start < booked[j].Start })

	free := make([]Window, 0, len(booked)+1)
	cursor := opening.Start
	for _, w := range booked {
		if w.Start > cursor {
			free = append(free, Window{Start: cursor, End: minClock(w.Start, opening.End)})
		}
		if w.End > cursor {
			cursor = w.End
		}
		if cursor >= opening.End {
			break
		}
	}
	if cursor < opening.End {
		free = append(free, Window{Start: cursor, End: opening.End})
	}
	return free
}

func minClock(a, b Clock) Clock {
	if a < b {
		return a
	}
	return b
}
