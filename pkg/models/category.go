package models

import "time"

// Category groups sessions of one content type (daily expressions, news, ...)
type Category struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Slug          *string   `json:"slug" db:"slug"`
	DisplayOrder  int       `json:"display_order" db:"display_order"`
	Description   *string   `json:"description" db:"description"`
	ContentType   string    `json:"content_type" db:"content_type"`
	TotalSessions int       `json:"total_sessions" db:"total_sessions"` // Denormalized, recomputed after import
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// SlugOrEmpty returns the category slug or "" for legacy rows without one
func (c Category) SlugOrEmpty() string {
	if c.Slug == nil {
		return ""
	}
	return *c.Slug
}
