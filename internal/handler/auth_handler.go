package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pau-bookit/bookit-api/internal/dto"
	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/service"
	"github.com/pau-bookit/bookit-api/internal/utils"
)

// AuthHandler serves login and the current identity.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublic binds routes that do not require a token.
func (h *AuthHandler) RegisterPublic(router fiber.Router, guards ...fiber.Handler) {
	handlers := make([]fiber.Handler, 0, len(guards)+1)
	handlers = append(handlers, guards...)
	router.Post("/login", append(handlers, h.login)...)
}

// RegisterProtected binds routes that require an authenticated user.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return writeError(c, h.logger, err, "failed to login")
	}

	return utils.SendSuccess(c, "login successful", response)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	name, _ := c.Locals("user_name").(string)
	email, _ := c.Locals("user_email").(string)
	user := models.User{
		ID:     userIDFromContext(c),
		Name:   name,
		Email:  email,
		Role:   models.Role(userRoleFromContext(c)),
		Active: true,
	}
	return utils.SendSuccess(c, "current user", dto.NewUserResponse(user))
}
