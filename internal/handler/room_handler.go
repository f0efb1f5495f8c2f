package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/middleware"
	"github.com/pau-bookit/bookit-api/internal/service"
	"github.com/pau-bookit/bookit-api/internal/utils"
)

// RoomHandler serves the room inventory, availability and facility maintenance routes.
type RoomHandler struct {
	rooms        service.RoomService
	reservations service.ReservationService
	board        *service.RoomBoard
	logger       zerolog.Logger
}

// NewRoomHandler constructs the handler. board may be nil, which disables the websocket feed.
func NewRoomHandler(rooms service.RoomService, reservations service.ReservationService, board *service.RoomBoard, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:        rooms,
		reservations: reservations,
		board:        board,
		logger:       logger.With().Str("component", "room_handler").Logger(),
	}
}

// Register binds the read routes under /rooms.
func (h *RoomHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/availability", h.availability)
}

// RegisterFacility binds the maintenance routes under /facility. Each route admits
// facility staff and administrators.
func (h *RoomHandler) RegisterFacility(router fiber.Router) {
	guard := middleware.AuthOptions{Role: middleware.AuthRoleFacility}
	router.Patch("/rooms/:id/status", middleware.WithAuth(h.updateStatus, guard))
	router.Patch("/rooms/:id/utilities", middleware.WithAuth(h.updateUtility, guard))
	router.Post("/rooms/:id/notes", middleware.WithAuth(h.addNote, guard))
}

// RegisterBoard binds the websocket room board under the router.
func (h *RoomHandler) RegisterBoard(router fiber.Router) {
	if h.board == nil {
		return
	}
	router.Use("/board", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/board", websocket.New(h.serveBoard))
}

func (h *RoomHandler) list(c *fiber.Ctx) error {
	rooms, err := h.rooms.List(requestContext(c), c.Query("building"))
	if err != nil {
		return writeError(c, h.logger, err, "failed to list rooms")
	}
	return utils.SendSuccess(c, "rooms", rooms)
}

func (h *RoomHandler) get(c *fiber.Ctx) error {
	room, err := h.rooms.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err, "failed to load room")
	}
	return utils.SendSuccess(c, "room", room)
}

func (h *RoomHandler) availability(c *fiber.Ctx) error {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", map[string]string{"date": "is required"})
	}

	response, err := h.reservations.Availability(requestContext(c), c.Params("id"), date, c.Query("start_time"), c.Query("end_time"))
	if err != nil {
		return writeError(c, h.logger, err, "failed to check availability")
	}
	return utils.SendSuccess(c, "availability", response)
}

func (h *RoomHandler) updateStatus(c *fiber.Ctx) error {
	var payload dto.RoomStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.Status = strings.ToUpper(strings.TrimSpace(payload.Status))

	room, err := h.rooms.UpdateStatus(requestContext(c), actorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return writeError(c, h.logger, err, "failed to update room status")
	}
	return utils.SendSuccess(c, "room status updated", room)
}

func (h *RoomHandler) updateUtility(c *fiber.Ctx) error {
	var payload dto.RoomUtilityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.Utility = strings.ToLower(strings.TrimSpace(payload.Utility))
	payload.State = strings.ToUpper(strings.TrimSpace(payload.State))

	room, err := h.rooms.UpdateUtility(requestContext(c), actorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return writeError(c, h.logger, err, "failed to update room utility")
	}
	return utils.SendSuccess(c, "room utility updated", room)
}

func (h *RoomHandler) addNote(c *fiber.Ctx) error {
	var payload dto.RoomNoteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	room, err := h.rooms.AddNote(requestContext(c), actorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return writeError(c, h.logger, err, "failed to add room note")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "room note added", room)
}

func (h *RoomHandler) serveBoard(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	building := strings.TrimSpace(conn.Query("building"))

	h.logger.Info().Str("user_id", userID).Str("building", building).Int("connections", h.board.Connections()+1).Msg("room board connected")
	h.board.Serve(conn, service.BoardConnectionOptions{UserID: userID, Building: building})
	h.logger.Info().Str("user_id", userID).Int("connections", h.board.Connections()).Msg("room board disconnected")
}
