package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/transferwiki/backend/internal/session"
)

// SlidingRefresh reissues the session cookie when the verified token is
// older than the update age. Claims stay identical; only the issuance
// time moves. Must run after SessionProtected.
func SlidingRefresh(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return c.Next()
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Next()
		}

		fresh, reissued, err := sessions.RefreshMap(claims)
		if err != nil {
			slog.Error("session refresh failed", "error", err)
			return c.Next()
		}
		if reissued {
			c.Cookie(sessions.Cookie(fresh))
		}
		return c.Next()
	}
}
