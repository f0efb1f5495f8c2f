package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/service"
	"github.com/pau-bookit/bookit-api/internal/utils"
)

// AdminReservationHandler serves the administrator review queue.
type AdminReservationHandler struct {
	service service.ReservationService
	logger  zerolog.Logger
}

// NewAdminReservationHandler constructs the handler.
func NewAdminReservationHandler(service service.ReservationService, logger zerolog.Logger) *AdminReservationHandler {
	return &AdminReservationHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_reservation_handler").Logger(),
	}
}

// Register binds routes under /admin/reservations.
func (h *AdminReservationHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Post("/bulk-approve", h.bulkApprove)
	router.Patch("/:id/review", h.review)
	router.Delete("/:id", h.delete)
}

// RegisterDashboard binds the dashboard summary route.
func (h *AdminReservationHandler) RegisterDashboard(router fiber.Router) {
	router.Get("/dashboard", h.dashboard)
}

func (h *AdminReservationHandler) list(c *fiber.Ctx) error {
	req := dto.ReservationListRequest{
		Status: c.Query("status"),
		Date:   c.Query("date"),
		RoomID: c.Query("room_id"),
	}

	response, err := h.service.List(requestContext(c), req)
	if err != nil {
		return writeError(c, h.logger, err, "failed to list reservations")
	}

	return utils.OK(c, response.Items, "reservations", response.Counts)
}

func (h *AdminReservationHandler) create(c *fiber.Ctx) error {
	var payload dto.AdminReservationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.AdminCreate(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return writeError(c, h.logger, err, "failed to create reservation")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reservation created", response)
}

func (h *AdminReservationHandler) review(c *fiber.Ctx) error {
	id, err := parseReservationID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReservationReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Review(requestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return writeError(c, h.logger, err, "failed to review reservation")
	}

	return utils.SendSuccess(c, "reservation reviewed", response)
}

func (h *AdminReservationHandler) bulkApprove(c *fiber.Ctx) error {
	response, err := h.service.BulkApprove(requestContext(c), actorFromContext(c))
	if err != nil {
		return writeError(c, h.logger, err, "failed to approve reservations")
	}

	return utils.SendSuccess(c, "pending reservations approved", response)
}

func (h *AdminReservationHandler) delete(c *fiber.Ctx) error {
	id, err := parseReservationID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Delete(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return writeError(c, h.logger, err, "failed to delete reservation")
	}

	message := "reservation deleted"
	if !response.Deleted {
		message = "reservation not found"
	}
	return utils.SendSuccess(c, message, response)
}

func (h *AdminReservationHandler) dashboard(c *fiber.Ctx) error {
	response, err := h.service.Dashboard(requestContext(c))
	if err != nil {
		return writeError(c, h.logger, err, "failed to load dashboard")
	}

	return utils.SendSuccess(c, "dashboard", response)
}
