package models

import "time"

// UserSettings holds per-user study preferences
type UserSettings struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	AutoPlayAudio bool      `json:"auto_play_audio" db:"auto_play_audio"`
	DailyReminder bool      `json:"daily_reminder" db:"daily_reminder"`
	DailyGoal     int       `json:"daily_goal" db:"daily_goal"`
	DarkMode      bool      `json:"dark_mode" db:"dark_mode"`
	ReminderTime  string    `json:"reminder_time" db:"reminder_time"` // HH:MM:SS
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// SettingsUpdate is a partial update; nil fields are left unchanged
type SettingsUpdate struct {
	AutoPlayAudio *bool   `json:"auto_play_audio"`
	DailyReminder *bool   `json:"daily_reminder"`
	DailyGoal     *int    `json:"daily_goal"`
	DarkMode      *bool   `json:"dark_mode"`
	ReminderTime  *string `json:"reminder_time"`
}
