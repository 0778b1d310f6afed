// Package settings manages per-user study preferences and progress resets.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/pkg/models"
)

// ErrInvalidSetting is returned when a patch carries an unacceptable value
var ErrInvalidSetting = errors.New("invalid setting")

// Defaults for a user who never saved settings
const (
	DefaultDailyGoal    = 10
	DefaultReminderTime = "09:00:00"
	maxDailyGoal        = 100
)

// Store persists settings rows
type Store interface {
	GetByUser(ctx context.Context, userID string) (*models.UserSettings, error)
	Create(ctx context.Context, settings *models.UserSettings) error
	Update(ctx context.Context, settings *models.UserSettings) error
}

// ProgressDeleter removes every progress row of a user from one table
type ProgressDeleter interface {
	DeleteByUser(ctx context.Context, userID string) error
}

// Service reads and updates user settings
type Service struct {
	store Store
	// expression progress, session progress, daily stats
	resetters []ProgressDeleter
	log       *logger.Logger
}

// NewService creates a settings service. resetters are cleared in order by ResetProgress.
func NewService(store Store, log *logger.Logger, resetters ...ProgressDeleter) *Service {
	return &Service{
		store:     store,
		resetters: resetters,
		log:       log.With("component", "settings.Service"),
	}
}

// Defaults returns the settings a new user starts with
func Defaults(userID string) models.UserSettings {
	return models.UserSettings{
		UserID:        userID,
		AutoPlayAudio: true,
		DailyReminder: false,
		DailyGoal:     DefaultDailyGoal,
		DarkMode:      false,
		ReminderTime:  DefaultReminderTime,
	}
}

// Load returns the user's settings, creating the defaults on first use
func (s *Service) Load(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	defaults := Defaults(userID)
	if err := s.store.Create(ctx, &defaults); err != nil {
		return nil, err
	}
	s.log.Info("default settings created", "user_id", userID)
	return &defaults, nil
}

// Update applies a partial update and returns the stored result
func (s *Service) Update(ctx context.Context, userID string, patch models.SettingsUpdate) (*models.UserSettings, error) {
	settings, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.AutoPlayAudio != nil {
		settings.AutoPlayAudio = *patch.AutoPlayAudio
	}
	if patch.DailyReminder != nil {
		settings.DailyReminder = *patch.DailyReminder
	}
	if patch.DarkMode != nil {
		settings.DarkMode = *patch.DarkMode
	}
	if patch.DailyGoal != nil {
		if *patch.DailyGoal < 1 || *patch.DailyGoal > maxDailyGoal {
			return nil, fmt.Errorf("%w: daily goal must be between 1 and %d", ErrInvalidSetting, maxDailyGoal)
		}
		settings.DailyGoal = *patch.DailyGoal
	}
	if patch.ReminderTime != nil {
		normalized, err := NormalizeReminderTime(*patch.ReminderTime)
		if err != nil {
			return nil, err
		}
		settings.ReminderTime = normalized
	}

	if err := s.store.Update(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ToggleAutoPlayAudio flips auto_play_audio
func (s *Service) ToggleAutoPlayAudio(ctx context.Context, userID string) (*models.UserSettings, error) {
	return s.toggle(ctx, userID, func(u *models.UserSettings) *bool { return &u.AutoPlayAudio },
		func(v bool) models.SettingsUpdate { return models.SettingsUpdate{AutoPlayAudio: &v} })
}

// ToggleDailyReminder flips daily_reminder
func (s *Service) ToggleDailyReminder(ctx context.Context, userID string) (*models.UserSettings, error) {
	return s.toggle(ctx, userID, func(u *models.UserSettings) *bool { return &u.DailyReminder },
		func(v bool) models.SettingsUpdate { return models.SettingsUpdate{DailyReminder: &v} })
}

// ToggleDarkMode flips dark_mode
func (s *Service) ToggleDarkMode(ctx context.Context, userID string) (*models.UserSettings, error) {
	return s.toggle(ctx, userID, func(u *models.UserSettings) *bool { return &u.DarkMode },
		func(v bool) models.SettingsUpdate { return models.SettingsUpdate{DarkMode: &v} })
}

func (s *Service) toggle(ctx context.Context, userID string, field func(*models.UserSettings) *bool, patch func(bool) models.SettingsUpdate) (*models.UserSettings, error) {
	current, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, userID, patch(!*field(current)))
}

// SetDailyGoal sets the number of sessions the user aims for each day
func (s *Service) SetDailyGoal(ctx context.Context, userID string, goal int) (*models.UserSettings, error) {
	return s.Update(ctx, userID, models.SettingsUpdate{DailyGoal: &goal})
}

// SetReminderTime sets the daily reminder time, HH:MM or HH:MM:SS
func (s *Service) SetReminderTime(ctx context.Context, userID, at string) (*models.UserSettings, error) {
	return s.Update(ctx, userID, models.SettingsUpdate{ReminderTime: &at})
}

// NormalizeReminderTime validates HH:MM or HH:MM:SS and returns HH:MM:SS
func NormalizeReminderTime(value string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("%w: reminder time %q is not HH:MM[:SS]", ErrInvalidSetting, value)
}

// ResetProgress deletes every progress fact and stats row of the user.
// Settings themselves are kept.
func (s *Service) ResetProgress(ctx context.Context, userID string) error {
	for _, r := range s.resetters {
		if err := r.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to reset progress: %w", err)
		}
	}
	s.log.Warn("progress reset", "user_id", userID)
	return nil
}
