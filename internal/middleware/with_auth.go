package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pau-bookit/bookit-api/internal/utils"
)

// Auth role constants used by WithAuth helper.
const (
	AuthRoleAny       = "any"
	AuthRoleAdmin     = "admin"
	AuthRoleFacility  = "facility"
	AuthRoleRequester = "requester"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role           string
	AllowAnonymous bool
}

// WithAuth wraps a handler with authentication and role guards. Facility routes also
// admit administrators; requester routes admit students, faculty and administrators.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}
	anonymous := opts.AllowAnonymous && role == AuthRoleAny

	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id")
		if userID == nil || normalizeRoleValue(userID) == "" {
			if anonymous {
				return handler(c)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if !roleAllowed(role, normalizeRoleValue(c.Locals("user_role"))) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}

		return handler(c)
	}
}

func roleAllowed(required, current string) bool {
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleAdmin:
		return current == "admin"
	case AuthRoleFacility:
		return current == "facility" || current == "admin"
	case AuthRoleRequester:
		return current == "student" || current == "faculty" || current == "admin"
	}
	return current == required
}
