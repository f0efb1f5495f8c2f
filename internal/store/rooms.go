package store

import (
	"fmt"
	"time"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// DefaultRooms is the classroom inventory seeded into an empty document.
func DefaultRooms(now time.Time) []models.Room {
	type spec struct {
		building models.Building
		prefix   string
		label    string
		count    int
		seats    int
	}
	specs := []spec{
		{building: models.BuildingSST, prefix: "CR", label: "Classroom", count: 6, seats: 40},
		{building: models.BuildingSST, prefix: "LAB", label: "Computer Lab", count: 2, seats: 30},
		{building: models.BuildingTYD, prefix: "CR", label: "Classroom", count: 4, seats: 45},
		{building: models.BuildingTYD, prefix: "LH", label: "Lecture Hall", count: 2, seats: 120},
	}

	rooms := make([]models.Room, 0)
	for _, sp := range specs {
		for i := 1; i <= sp.count; i++ {
			rooms = append(rooms, models.Room{
				ID:        fmt.Sprintf("%s-%s%d", sp.building, sp.prefix, i),
				Building:  sp.building,
				Name:      fmt.Sprintf("%s %s %d", sp.building, sp.label, i),
				Seats:     sp.seats,
				Status:    models.RoomStatusAvailable,
				Utilities: workingUtilities(),
				Notes:     []models.RoomNote{},
				UpdatedAt: now,
			})
		}
	}
	return rooms
}

func workingUtilities() map[string]models.UtilityState {
	utilities := make(map[string]models.UtilityState, len(models.TrackedUtilities))
	for _, name := range models.TrackedUtilities {
		utilities[name] = models.UtilityWorking
	}
	return utilities
}
