package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForumCategory is a top-level forum section. Managed by admins only.
type ForumCategory struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Slug        string         `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Order       int            `gorm:"column:sort_order;default:0" json:"order"`
	Color       string         `gorm:"size:20" json:"color"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (fc *ForumCategory) BeforeCreate(tx *gorm.DB) error {
	if fc.ID == uuid.Nil {
		fc.ID = uuid.New()
	}
	return nil
}
