package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/transferwiki/backend/internal/dto"
	"github.com/transferwiki/backend/internal/i18n"
	"github.com/transferwiki/backend/internal/middleware"
	"github.com/transferwiki/backend/internal/providers"
	"github.com/transferwiki/backend/internal/services"
	"github.com/transferwiki/backend/internal/session"
)

type AuthHandler struct {
	authService *services.AuthService
	sessions    *session.Manager
	providers   map[string]providers.Provider
}

func NewAuthHandler(authService *services.AuthService, sessions *session.Manager, provs ...providers.Provider) *AuthHandler {
	byName := make(map[string]providers.Provider, len(provs))
	for _, p := range provs {
		byName[p.Name()] = p
	}
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		providers:   byName,
	}
}

// Login handles credential sign-in.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.MissingCredentials),
		})
	}

	ident, err := h.authService.CredentialsLogin(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredentials):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: i18n.T(i18n.MissingCredentials),
			})
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: i18n.T(i18n.InvalidCredentials),
			})
		default:
			slog.Error("credentials login failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: i18n.T(i18n.ProviderFailed),
			})
		}
	}

	if err := h.setSessionCookie(c, ident); err != nil {
		slog.Error("session issue failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.ProviderFailed),
		})
	}
	return c.JSON(userResponse(ident))
}

// SignIn starts the OAuth flow: mints the anti-forgery state, remembers
// the post-login destination, and redirects to the provider.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	provider, ok := h.providers[c.Params("provider")]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.ConfigurationError),
		})
	}

	state, err := randomState()
	if err != nil {
		slog.Error("state generation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.ProviderFailed),
		})
	}

	callbackURL := c.Query("callback_url", "/")
	c.Cookie(h.sessions.TransientCookie(session.CSRFCookie, state))
	c.Cookie(h.sessions.TransientCookie(session.CallbackCookie, callbackURL))

	return c.Redirect(provider.AuthCodeURL(state), fiber.StatusFound)
}

// Callback finishes the OAuth flow: state check, code exchange,
// reconciliation, session issue, redirect.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	provider, ok := h.providers[c.Params("provider")]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.ConfigurationError),
		})
	}

	if msg := c.Query("error"); msg != "" {
		slog.Info("provider denied authorization", "provider", provider.Name(), "error", msg)
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.AccessDenied),
		})
	}

	state := c.Query("state")
	if state == "" || state != c.Cookies(session.CSRFCookie) {
		slog.Info("state mismatch on callback", "provider", provider.Name())
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.AccessDenied),
		})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.AccessDenied),
		})
	}

	ident, err := h.authService.OAuthSignIn(c.UserContext(), provider, code)
	if err != nil {
		slog.Error("oauth sign-in failed", "provider", provider.Name(), "error", err)
		if errors.Is(err, providers.ErrProvider) {
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Error: true, Message: i18n.T(i18n.ProviderFailed),
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.AccessDenied),
		})
	}

	if err := h.setSessionCookie(c, ident); err != nil {
		slog.Error("session issue failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.ProviderFailed),
		})
	}

	target := c.Cookies(session.CallbackCookie)
	if target == "" {
		target = "/"
	}
	c.Cookie(h.sessions.ClearCookie(session.CSRFCookie))
	c.Cookie(h.sessions.ClearCookie(session.CallbackCookie))

	return c.Redirect(target, fiber.StatusFound)
}

// Session returns the identity behind the current session token.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.SessionRequired),
		})
	}

	ident, err := h.authService.GetUser(userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.SessionRequired),
		})
	}

	expires := time.Now().Add(h.sessions.MaxAge())
	if token, ok := c.Locals("user").(*jwt.Token); ok {
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if exp, ok := claims["exp"].(float64); ok {
				expires = time.Unix(int64(exp), 0)
			}
		}
	}

	return c.JSON(dto.SessionResponse{
		User:    userResponse(ident),
		Expires: expires.UTC().Format(time.RFC3339),
	})
}

// Logout clears the session cookies. The token itself stays stateless;
// nothing is revoked server-side.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(h.sessions.ClearCookie(session.CookieName))
	c.Cookie(h.sessions.ClearCookie(session.CSRFCookie))
	c.Cookie(h.sessions.ClearCookie(session.CallbackCookie))
	return c.JSON(fiber.Map{"message": "ok"})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, ident *services.Identity) error {
	token, err := h.sessions.Issue(ident.ID.String(), ident.Role)
	if err != nil {
		return err
	}
	c.Cookie(h.sessions.Cookie(token))
	return nil
}

func userResponse(ident *services.Identity) dto.UserResponse {
	return dto.UserResponse{
		ID:    ident.ID,
		Email: ident.Email,
		Name:  ident.Name,
		Image: ident.Image,
		Role:  ident.Role,
	}
}

func randomState() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
