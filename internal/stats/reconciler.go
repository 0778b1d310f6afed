// Package stats keeps daily_study_stats consistent with the progress fact tables.
// Rows are always rebuilt from the facts, never incremented, so running a
// reconciliation again is always safe.
package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/pkg/models"
)

// SessionCounter counts the live session rows of a category
type SessionCounter interface {
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// CompletedSessionLister reads completed session facts
type CompletedSessionLister interface {
	ListCompleted(ctx context.Context, userID, categoryID string) ([]models.UserSessionProgress, error)
}

// StatsWriter stores snapshots
type StatsWriter interface {
	Upsert(ctx context.Context, stats *models.DailyStudyStats) error
}

// CategoryLister enumerates categories
type CategoryLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// CountCompletedOn counts completed facts whose completion falls on day in zone.
// It is the only definition of "completed on a day"; every reader uses it.
func CountCompletedOn(rows []models.UserSessionProgress, zone *localdate.Zone, day string) int {
	n := 0
	for _, row := range rows {
		if CompletedOn(row, zone, day) {
			n++
		}
	}
	return n
}

// CompletedOn reports whether a single fact counts as completed on day
func CompletedOn(row models.UserSessionProgress, zone *localdate.Zone, day string) bool {
	if row.Status != models.StatusCompleted || row.CompletedAt == nil {
		return false
	}
	return zone.On(*row.CompletedAt, day)
}

// Reconciler recomputes daily snapshots from source facts
type Reconciler struct {
	sessions   SessionCounter
	progress   CompletedSessionLister
	stats      StatsWriter
	categories CategoryLister
	zone       *localdate.Zone
	log        *logger.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(sessions SessionCounter, progress CompletedSessionLister, stats StatsWriter, categories CategoryLister, zone *localdate.Zone, log *logger.Logger) *Reconciler {
	return &Reconciler{
		sessions:   sessions,
		progress:   progress,
		stats:      stats,
		categories: categories,
		zone:       zone,
		log:        log.With("component", "stats.Reconciler"),
	}
}

// Reconcile rebuilds the (user, category, day) snapshot.
// The total comes from counting sessions, never from categories.total_sessions.
func (r *Reconciler) Reconcile(ctx context.Context, userID, categoryID, day string) (*models.DailyStudyStats, error) {
	if _, err := localdate.ParseDay(day); err != nil {
		return nil, err
	}

	total, err := r.sessions.CountByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s/%s: %w", categoryID, day, err)
	}

	rows, err := r.progress.ListCompleted(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s/%s: %w", categoryID, day, err)
	}
	completed := CountCompletedOn(rows, r.zone, day)

	snapshot := &models.DailyStudyStats{
		UserID:            userID,
		CategoryID:        categoryID,
		StudyDate:         day,
		SessionsCompleted: completed,
		TotalSessions:     total,
	}
	if err := r.stats.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("reconcile %s/%s: %w", categoryID, day, err)
	}

	r.log.Debug("daily stats reconciled",
		"user_id", userID,
		"category_id", categoryID,
		"study_date", day,
		"sessions_completed", completed,
		"total_sessions", total,
	)
	return snapshot, nil
}

// ReconcileToday rebuilds today's snapshot for a category
func (r *Reconciler) ReconcileToday(ctx context.Context, userID, categoryID string) (*models.DailyStudyStats, error) {
	return r.Reconcile(ctx, userID, categoryID, r.zone.Today())
}

// ReconcileAll rebuilds the snapshot of every category for day, so categories
// without activity still get a 0/N row. It stops at the first failure.
func (r *Reconciler) ReconcileAll(ctx context.Context, userID, day string) ([]models.DailyStudyStats, error) {
	ids, err := r.categories.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile all: %w", err)
	}

	out := make([]models.DailyStudyStats, 0, len(ids))
	for _, id := range ids {
		snapshot, err := r.Reconcile(ctx, userID, id, day)
		if err != nil {
			return out, err
		}
		out = append(out, *snapshot)
	}
	return out, nil
}

// Zone exposes the reference zone used for bucketing
func (r *Reconciler) Zone() *localdate.Zone {
	return r.zone
}

// Initializer guarantees a same-day baseline row for every category, once per process
type Initializer struct {
	reconciler *Reconciler
	userID     string
	log        *logger.Logger

	once   sync.Once
	mu     sync.Mutex
	ranDay string
}

// NewInitializer creates a startup initializer for one user
func NewInitializer(reconciler *Reconciler, userID string, log *logger.Logger) *Initializer {
	return &Initializer{
		reconciler: reconciler,
		userID:     userID,
		log:        log.With("component", "stats.Initializer"),
	}
}

// Run reconciles every category for today on the first call and does nothing
// afterwards. Failures are logged, not returned: the stats table is a cache.
// It reports whether this call performed the run.
func (i *Initializer) Run(ctx context.Context) bool {
	ran := false
	i.once.Do(func() {
		ran = true
		start := time.Now()
		day := i.reconciler.zone.Today()
		i.mu.Lock()
		i.ranDay = day
		i.mu.Unlock()

		rows, err := i.reconciler.ReconcileAll(ctx, i.userID, day)
		elapsed := time.Since(start)
		if err != nil {
			i.log.Error("daily stats initialization failed", "study_date", day, "error", err)
			return
		}
		i.log.Info("daily stats initialized",
			"study_date", day,
			"categories", len(rows),
			"duration", elapsed,
		)
	})
	return ran
}

// Day returns the day the initializer ran for, or "" if it has not run
func (i *Initializer) Day() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ranDay
}
