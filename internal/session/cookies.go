package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Cookie builds the session token cookie.
func (m *Manager) Cookie(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   m.secure,
		Expires:  m.now().Add(m.maxAge),
	}
}

// TransientCookie builds a request-scoped helper cookie (callback URL,
// CSRF/state) with the same attribute policy as the session cookie.
func (m *Manager) TransientCookie(name, value string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   m.secure,
	}
}

// ClearCookie expires a cookie by name.
func (m *Manager) ClearCookie(name string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   m.secure,
		Expires:  time.Unix(0, 0),
	}
}
