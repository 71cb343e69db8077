package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AdminIDKey is the fiber.Ctx locals key under which RequireAdmin stores the
// authenticated admin's id.
const AdminIDKey = "adminID"

// TokenParser verifies a bearer token and resolves it to an admin id.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// RequireAdmin returns a middleware that rejects requests without a valid
// "Authorization: Bearer <token>" header and stores the resolved admin id in
// the request locals for downstream handlers.
func RequireAdmin(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "malformed authorization header"})
		}

		adminID, err := parser.Parse(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(AdminIDKey, adminID)
		return c.Next()
	}
}

// AdminID retrieves the authenticated admin's id stored by RequireAdmin.
// The second return is false when the request did not pass through the
// middleware.
func AdminID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(AdminIDKey).(uuid.UUID)
	return id, ok
}
