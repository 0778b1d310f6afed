package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/studyapp/pkg/models"
)

const settingsColumns = `id, user_id, auto_play_audio, daily_reminder, daily_goal, dark_mode, reminder_time, created_at, updated_at`

// UserSettingsRepository handles database operations for user_settings
type UserSettingsRepository struct {
	db *sqlx.DB
}

// NewUserSettingsRepository creates a new repository instance
func NewUserSettingsRepository(db *sqlx.DB) *UserSettingsRepository {
	return &UserSettingsRepository{db: db}
}

// GetByUser returns the settings row of a user, or nil
func (r *UserSettingsRepository) GetByUser(ctx context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := r.db.GetContext(ctx, &settings, r.db.Rebind(`SELECT `+settingsColumns+` FROM user_settings WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	return &settings, nil
}

// Create inserts a settings row; an existing row for the user is kept as is
func (r *UserSettingsRepository) Create(ctx context.Context, settings *models.UserSettings) error {
	ts := now()
	query := r.db.Rebind(`
		INSERT INTO user_settings (` + settingsColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`)
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(),
		settings.UserID,
		settings.AutoPlayAudio,
		settings.DailyReminder,
		settings.DailyGoal,
		settings.DarkMode,
		settings.ReminderTime,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to create user settings: %w", err)
	}

	stored, err := r.GetByUser(ctx, settings.UserID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("settings for %s vanished after insert", settings.UserID)
	}
	*settings = *stored
	return nil
}

// Update writes every mutable column of the row
func (r *UserSettingsRepository) Update(ctx context.Context, settings *models.UserSettings) error {
	settings.UpdatedAt = now()
	query := r.db.Rebind(`
		UPDATE user_settings SET
			auto_play_audio = ?,
			daily_reminder = ?,
			daily_goal = ?,
			dark_mode = ?,
			reminder_time = ?,
			updated_at = ?
		WHERE user_id = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		settings.AutoPlayAudio,
		settings.DailyReminder,
		settings.DailyGoal,
		settings.DarkMode,
		settings.ReminderTime,
		settings.UpdatedAt,
		settings.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("settings for user %s not found", settings.UserID)
	}
	return nil
}
