package web

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// InternalAuth guards the internal endpoints with a shared service token.
// The header must be "Authorization: Bearer <token>"; comparison is constant
// time.
func InternalAuth(token string) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)

		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return unauthorized(c, "Missing bearer token")
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return unauthorized(c, "Invalid service token")
		}

		return c.Next()
	}
}
