package models

import "time"

// DailyStudyStats is the denormalized per-day snapshot for a user and category.
// Both counters are recomputed from the fact tables, never incremented.
type DailyStudyStats struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	CategoryID        string    `json:"category_id" db:"category_id"`
	CategoryName      string    `json:"category_name,omitempty" db:"category_name"`
	StudyDate         string    `json:"study_date" db:"study_date"` // YYYY-MM-DD in the reference timezone
	SessionsCompleted int       `json:"sessions_completed" db:"sessions_completed"`
	TotalSessions     int       `json:"total_sessions" db:"total_sessions"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
