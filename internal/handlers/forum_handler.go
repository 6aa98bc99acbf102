package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/transferwiki/backend/internal/dto"
	"github.com/transferwiki/backend/internal/i18n"
	"github.com/transferwiki/backend/internal/models"
	"gorm.io/gorm"
)

// ForumHandler is a thin passthrough to the category table. Creation is
// admin-only; the role gate sits in the route middleware.
type ForumHandler struct {
	db *gorm.DB
}

func NewForumHandler(db *gorm.DB) *ForumHandler {
	return &ForumHandler{db: db}
}

func (h *ForumHandler) ListCategories(c *fiber.Ctx) error {
	var categories []models.ForumCategory
	if err := h.db.Order("sort_order asc, created_at asc").Find(&categories).Error; err != nil {
		slog.Error("category list failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.CategoryFetchFailed),
		})
	}
	return c.JSON(categories)
}

func (h *ForumHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.CategoryMissingField),
		})
	}

	if req.Name == "" || req.Slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.CategoryMissingField),
		})
	}

	var existing models.ForumCategory
	err := h.db.Where("slug = ?", req.Slug).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.CategoryExists),
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("category slug check failed", "slug", req.Slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.CategoryCreateFailed),
		})
	}

	category := models.ForumCategory{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		Order:       req.Order,
		Color:       req.Color,
	}
	if err := h.db.Create(&category).Error; err != nil {
		slog.Error("category create failed", "slug", req.Slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: i18n.T(i18n.CategoryCreateFailed),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(category)
}
