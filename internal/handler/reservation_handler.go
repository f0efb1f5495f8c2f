package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/service"
	"github.com/pau-bookit/bookit-api/internal/utils"
)

// ReservationHandler serves requester facing reservation endpoints.
type ReservationHandler struct {
	service service.ReservationService
	logger  zerolog.Logger
}

// NewReservationHandler constructs the handler.
func NewReservationHandler(service service.ReservationService, logger zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		logger:  logger.With().Str("component", "reservation_handler").Logger(),
	}
}

// Register binds routes under /reservations.
func (h *ReservationHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/mine", h.mine)
	router.Get("/:id", h.get)
}

func (h *ReservationHandler) submit(c *fiber.Ctx) error {
	var payload dto.ReservationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Submit(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return writeError(c, h.logger, err, "failed to submit reservation")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reservation submitted", response)
}

func (h *ReservationHandler) mine(c *fiber.Ctx) error {
	response, err := h.service.ListMine(requestContext(c), actorFromContext(c))
	if err != nil {
		return writeError(c, h.logger, err, "failed to list reservations")
	}

	return utils.OK(c, response.Items, "reservations", response.Counts)
}

func (h *ReservationHandler) get(c *fiber.Ctx) error {
	id, err := parseReservationID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return writeError(c, h.logger, err, "failed to load reservation")
	}

	return utils.SendSuccess(c, "reservation", response)
}
