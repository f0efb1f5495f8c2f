package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/identity"
	"github.com/pau-bookit/bookit-api/internal/middleware"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/service"
	"github.com/pau-bookit/bookit-api/internal/store"
	"github.com/pau-bookit/bookit-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseReservationID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Params("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid reservation id")
	}
	return id, nil
}

func userIDFromContext(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return strings.TrimSpace(id)
	}
	return ""
}

func userRoleFromContext(c *fiber.Ctx) string {
	if role, ok := c.Locals("user_role").(string); ok {
		return strings.ToLower(strings.TrimSpace(role))
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	name, _ := c.Locals("user_name").(string)
	return service.Actor{
		ID:   userIDFromContext(c),
		Name: name,
		Role: models.Role(userRoleFromContext(c)),
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors) || errors.Is(err, store.ErrValidation)
}

// validationDetails flattens validator and store validation errors into field messages.
func validationDetails(err error) map[string]string {
	details := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			details[fieldErr.Field()] = fieldMessage(fieldErr)
		}
		return details
	}

	var storeErr *store.ValidationError
	if errors.As(err, &storeErr) {
		for field, msg := range storeErr.FieldErrors {
			details[field] = msg
		}
	}
	return details
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "datetime":
		if fieldErr.Param() == "15:04" {
			return "must be HH:MM"
		}
		return "must be YYYY-MM-DD"
	case "oneof":
		return "must be one of: " + fieldErr.Param()
	case "max":
		return "must be at most " + fieldErr.Param() + " characters"
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

// writeError maps service and store errors onto HTTP responses.
func writeError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var conflict *store.ConflictError
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.As(err, &conflict):
		message := "room is unavailable for the requested time"
		if conflict.RoomClosed {
			message = "room is currently unavailable"
		}
		return utils.Fail(c, fiber.StatusConflict, message, fiber.Map{
			"room_id":        conflict.RoomID,
			"date":           conflict.Date,
			"window":         conflict.Window,
			"reservation_id": conflict.ReservationID,
		})
	case errors.Is(err, store.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrInactiveUser), errors.Is(err, identity.ErrInvalidToken):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, identity.ErrLoginUnsupported):
		return utils.SendError(c, fiber.StatusNotImplemented, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Str("kind", store.ErrorKind(err)).Msg(fallback)
	if errors.Is(err, store.ErrPersistence) {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "storage temporarily unavailable")
	}
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}
