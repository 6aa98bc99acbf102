package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/transferwiki/backend/internal/dto"
	"github.com/transferwiki/backend/internal/i18n"
	"github.com/transferwiki/backend/internal/session"
)

// SessionProtected verifies the session cookie. The token processor
// strips the outer encryption layer so the standard HS256 verification
// sees the inner signed token.
func SessionProtected(sessions *session.Manager) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: sessions.SigningKey()},
		TokenLookup: "cookie:" + session.CookieName,
		TokenProcessorFunc: func(token string) (string, error) {
			return sessions.Decrypt(token)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: i18n.T(i18n.SessionRequired),
			})
		},
	})
}
