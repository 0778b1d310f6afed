package models

import "time"

// SessionStatus is the progress state of a user's session
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not-started"
	StatusInProgress SessionStatus = "in-progress"
	StatusCompleted  SessionStatus = "completed"
)

// UserSessionProgress is the fact row for a user's session completion.
// At most one row exists per (user_id, session_id).
type UserSessionProgress struct {
	ID          string        `json:"id" db:"id"`
	UserID      string        `json:"user_id" db:"user_id"`
	SessionID   string        `json:"session_id" db:"session_id"`
	CategoryID  string        `json:"category_id" db:"category_id"`
	Status      SessionStatus `json:"status" db:"status"`
	CompletedAt *time.Time    `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// UserExpressionProgress is the fact row for a user's expression completion.
// At most one row exists per (user_id, expression_id).
type UserExpressionProgress struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	ExpressionID string    `json:"expression_id" db:"expression_id"`
	SessionID    string    `json:"session_id" db:"session_id"`
	CategoryID   string    `json:"category_id" db:"category_id"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
