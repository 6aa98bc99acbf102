package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/transferwiki/backend/internal/handlers"
	"github.com/transferwiki/backend/internal/i18n"
	"github.com/transferwiki/backend/internal/middleware"
	"github.com/transferwiki/backend/internal/session"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	db *gorm.DB,
	sessions *session.Manager,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	forumHandler *handlers.ForumHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/login", authHandler.Login)
	auth.Get("/signin/:provider", authHandler.SignIn)
	auth.Get("/callback/:provider", authHandler.Callback)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/session",
		middleware.SessionProtected(sessions),
		middleware.SlidingRefresh(sessions),
		authHandler.Session)

	// Forum categories: public read, admin-only create
	api.Get("/forum/categories", forumHandler.ListCategories)
	api.Post("/forum/categories",
		middleware.SessionProtected(sessions),
		middleware.SlidingRefresh(sessions),
		middleware.AdminRequired(db, i18n.CategoryCreateDenied),
		forumHandler.CreateCategory)
}
