// Package scheduler runs the periodic jobs: the midnight stats baseline and
// the daily study reminder.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/internal/stats"
	"github.com/example/studyapp/pkg/models"
)

// Reminder is what the notifier is asked to deliver
type Reminder struct {
	UserID    string
	Day       string
	Completed int
	Goal      int
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, reminder Reminder) error
}

// Reconciler rebuilds every category's snapshot for a day
type Reconciler interface {
	ReconcileAll(ctx context.Context, userID, day string) ([]models.DailyStudyStats, error)
}

// SettingsLoader returns the user's settings
type SettingsLoader interface {
	Load(ctx context.Context, userID string) (*models.UserSettings, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler  *gocron.Scheduler
	reconciler Reconciler
	settings   SettingsLoader
	progress   stats.CompletedSessionLister
	notifier   Notifier
	zone       *localdate.Zone
	userID     string
	log        *logger.Logger

	mu           sync.Mutex
	lastReminded string
}

// New creates a new scheduler instance. notifier may be nil, in which case
// reminders are only logged.
func New(reconciler Reconciler, settings SettingsLoader, progress stats.CompletedSessionLister, notifier Notifier, zone *localdate.Zone, userID string, log *logger.Logger) *Scheduler {
	s := gocron.NewScheduler(zone.Location())
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:  s,
		reconciler: reconciler,
		settings:   settings,
		progress:   progress,
		notifier:   notifier,
		zone:       zone,
		userID:     userID,
		log:        log.With("component", "scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	// New day in the reference zone: every category gets its 0/N row
	if _, err := s.scheduler.Every(1).Day().At("00:00").Do(func() {
		if _, err := s.RunMidnight(context.Background()); err != nil {
			s.log.Error("midnight baseline failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule midnight job: %w", err)
	}

	if _, err := s.scheduler.Every(1).Minute().Do(func() {
		if _, err := s.CheckReminder(context.Background()); err != nil {
			s.log.Error("reminder check failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "timezone", s.zone.Location().String())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunMidnight reconciles every category for the current reference day
func (s *Scheduler) RunMidnight(ctx context.Context) ([]models.DailyStudyStats, error) {
	day := s.zone.Today()
	rows, err := s.reconciler.ReconcileAll(ctx, s.userID, day)
	if err != nil {
		return nil, err
	}
	s.log.Info("daily baseline written", "study_date", day, "categories", len(rows))
	return rows, nil
}

// CheckReminder sends at most one reminder per day, once the user's reminder
// time has passed and only while today's completions are below the goal.
// It reports whether a reminder was sent.
func (s *Scheduler) CheckReminder(ctx context.Context) (bool, error) {
	settings, err := s.settings.Load(ctx, s.userID)
	if err != nil {
		return false, err
	}
	if !settings.DailyReminder {
		return false, nil
	}

	now := s.zone.Now()
	today := s.zone.Today()
	due, err := reminderDue(now, settings.ReminderTime)
	if err != nil {
		return false, err
	}
	if !due {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastReminded == today {
		return false, nil
	}

	rows, err := s.progress.ListCompleted(ctx, s.userID, "")
	if err != nil {
		return false, err
	}
	completed := stats.CountCompletedOn(rows, s.zone, today)
	if completed >= settings.DailyGoal {
		s.lastReminded = today
		return false, nil
	}

	reminder := Reminder{UserID: s.userID, Day: today, Completed: completed, Goal: settings.DailyGoal}
	if s.notifier == nil {
		s.log.Info("study reminder", "study_date", today, "completed", completed, "goal", settings.DailyGoal)
	} else if err := s.notifier.SendReminder(ctx, reminder); err != nil {
		return false, fmt.Errorf("failed to send reminder: %w", err)
	}
	s.lastReminded = today
	return true, nil
}

func reminderDue(now time.Time, reminderTime string) (bool, error) {
	var at time.Time
	var err error
	for _, layout := range []string{"15:04:05", "15:04"} {
		if at, err = time.Parse(layout, reminderTime); err == nil {
			break
		}
	}
	if err != nil {
		return false, fmt.Errorf("invalid reminder time %q: %w", reminderTime, err)
	}
	due := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), at.Second(), 0, now.Location())
	return !now.Before(due), nil
}
