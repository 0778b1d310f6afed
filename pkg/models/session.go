package models

import "time"

// Session is a numbered lesson inside a category
type Session struct {
	ID             string    `json:"id" db:"id"`
	CategoryID     string    `json:"category_id" db:"category_id"`
	SessionNumber  int       `json:"session_number" db:"session_number"` // 1-based within category
	Title          string    `json:"title" db:"title"`
	PatternEnglish *string   `json:"pattern_english" db:"pattern_english"`
	PatternKorean  *string   `json:"pattern_korean" db:"pattern_korean"`
	Description    *string   `json:"description" db:"description"`
	Metadata       Metadata  `json:"metadata" db:"metadata"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Expression is one English/Korean pair of a session
type Expression struct {
	ID           string    `json:"id" db:"id"`
	SessionID    string    `json:"session_id" db:"session_id"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	English      string    `json:"english" db:"english"`
	Korean       string    `json:"korean" db:"korean"`
	AudioURL     *string   `json:"audio_url" db:"audio_url"` // Storage path, not a full URL
	Metadata     Metadata  `json:"metadata" db:"metadata"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
