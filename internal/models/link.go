package models

import (
	"time"

	"github.com/google/uuid"
)

type Link struct {
	ID          uuid.UUID `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateLinkInput struct {
	OriginalURL string  `json:"original_url" binding:"required"`
	CustomSlug  *string `json:"custom_slug,omitempty"`
}

type UpdateLinkInput struct {
	OriginalURL *string `json:"original_url,omitempty"`
	ShortCode   *string `json:"short_code,omitempty"`
}

type LinkStats struct {
	LinkID       uuid.UUID `json:"link_id"`
	TotalClicks  int64     `json:"total_clicks"`
	UniqueClicks int64     `json:"unique_clicks"`
}
