package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pau-bookit/bookit-api/internal/config"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/utils"
)

// BookingState is the read side of the store the health probe reports on.
type BookingState interface {
	Rooms() []models.Room
	Counts() map[models.ReservationStatus]int
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Service      string    `json:"service"`
	Environment  string    `json:"environment"`
	Storage      string    `json:"storage"`
	Identity     string    `json:"identity"`
	Rooms        int       `json:"rooms"`
	OpenRooms    int       `json:"open_rooms"`
	PendingQueue int       `json:"pending_queue"`
}

// HealthCheck reports the configured backends and the size of the inventory and review
// queue. state may be nil.
func HealthCheck(cfg config.Config, state BookingState) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Storage:     cfg.StorageDriver,
			Identity:    cfg.IdentityProvider,
		}
		if state != nil {
			for _, room := range state.Rooms() {
				payload.Rooms++
				if room.IsOperational() {
					payload.OpenRooms++
				}
			}
			payload.PendingQueue = state.Counts()[models.ReservationPending]
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
