package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pau-bookit/bookit-api/internal/models"
	"github.com/pau-bookit/bookit-api/internal/utils"
)

// TokenResolver resolves a bearer token to the user it was issued for.
type TokenResolver interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// Authenticate validates the bearer token and stores the resolved identity in Locals
// under user_id, user_role and user_name.
func Authenticate(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		user, err := resolver.Authenticate(c.UserContext(), token)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", string(user.Role))
		c.Locals("user_name", user.Name)
		c.Locals("user_email", user.Email)

		return c.Next()
	}
}

// bearerToken reads the token from the Authorization header, falling back to the
// access_token query parameter used by websocket clients.
func bearerToken(c *fiber.Ctx) (string, bool) {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authorization == "" {
		if token := strings.TrimSpace(c.Query("access_token")); token != "" {
			return token, true
		}
		return "", false
	}

	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return "", false
	}
	token := strings.TrimSpace(authorization[len(bearer):])
	return token, token != ""
}
