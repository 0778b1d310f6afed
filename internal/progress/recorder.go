// Package progress records user completions of expressions and sessions.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/pkg/models"
)

// ErrMissingID is returned when a required identifier is empty
var ErrMissingID = errors.New("missing identifier")

// ExpressionStore persists expression completion facts
type ExpressionStore interface {
	MarkCompleted(ctx context.Context, userID, expressionID, sessionID, categoryID string, at time.Time) (*models.UserExpressionProgress, error)
	GetByUserAndExpression(ctx context.Context, userID, expressionID string) (*models.UserExpressionProgress, error)
	ListByUser(ctx context.Context, userID, sessionID string) ([]models.UserExpressionProgress, error)
}

// SessionStore persists session completion facts
type SessionStore interface {
	MarkCompleted(ctx context.Context, userID, sessionID, categoryID string, at time.Time) (*models.UserSessionProgress, error)
	GetByUserAndSession(ctx context.Context, userID, sessionID string) (*models.UserSessionProgress, error)
}

// StatsReconciler rebuilds today's snapshot for a category
type StatsReconciler interface {
	ReconcileToday(ctx context.Context, userID, categoryID string) (*models.DailyStudyStats, error)
}

// StatsReader reads stored snapshots
type StatsReader interface {
	ListRange(ctx context.Context, userID, from, to string) ([]models.DailyStudyStats, error)
}

// Recorder writes completion facts and keeps daily stats in step
type Recorder struct {
	expressions ExpressionStore
	sessions    SessionStore
	reconciler  StatsReconciler
	stats       StatsReader
	zone        *localdate.Zone
	log         *logger.Logger
}

// NewRecorder creates a progress recorder
func NewRecorder(expressions ExpressionStore, sessions SessionStore, reconciler StatsReconciler, stats StatsReader, zone *localdate.Zone, log *logger.Logger) *Recorder {
	return &Recorder{
		expressions: expressions,
		sessions:    sessions,
		reconciler:  reconciler,
		stats:       stats,
		zone:        zone,
		log:         log.With("component", "progress.Recorder"),
	}
}

// CompleteExpression marks an expression done now. Completing it again only
// moves completed_at forward; there is never a second row.
func (r *Recorder) CompleteExpression(ctx context.Context, userID, expressionID, sessionID, categoryID string) (*models.UserExpressionProgress, error) {
	if err := requireIDs(userID, expressionID, sessionID, categoryID); err != nil {
		return nil, err
	}
	progress, err := r.expressions.MarkCompleted(ctx, userID, expressionID, sessionID, categoryID, r.zone.Now())
	if err != nil {
		return nil, err
	}
	r.log.Debug("expression completed", "expression_id", expressionID, "session_id", sessionID)
	return progress, nil
}

// CompleteSession marks a session done now with a single atomic upsert
func (r *Recorder) CompleteSession(ctx context.Context, userID, sessionID, categoryID string) (*models.UserSessionProgress, error) {
	if err := requireIDs(userID, sessionID, categoryID); err != nil {
		return nil, err
	}
	progress, err := r.sessions.MarkCompleted(ctx, userID, sessionID, categoryID, r.zone.Now())
	if err != nil {
		return nil, err
	}
	r.log.Info("session completed", "session_id", sessionID, "category_id", categoryID)
	return progress, nil
}

// GetCompletedExpressions returns the expression facts completed today.
// An empty sessionID means every session.
func (r *Recorder) GetCompletedExpressions(ctx context.Context, userID, sessionID string) ([]models.UserExpressionProgress, error) {
	rows, err := r.expressions.ListByUser(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	today := r.zone.Today()
	out := make([]models.UserExpressionProgress, 0, len(rows))
	for _, row := range rows {
		if r.zone.On(row.CompletedAt, today) {
			out = append(out, row)
		}
	}
	return out, nil
}

// IsExpressionCompleted reports whether the user ever completed the expression
func (r *Recorder) IsExpressionCompleted(ctx context.Context, userID, expressionID string) (bool, error) {
	progress, err := r.expressions.GetByUserAndExpression(ctx, userID, expressionID)
	if err != nil {
		return false, err
	}
	return progress != nil, nil
}

// GetSessionProgress returns the session fact, or nil when none exists
func (r *Recorder) GetSessionProgress(ctx context.Context, userID, sessionID string) (*models.UserSessionProgress, error) {
	return r.sessions.GetByUserAndSession(ctx, userID, sessionID)
}

// UpdateDailyStats rebuilds today's snapshot for a category
func (r *Recorder) UpdateDailyStats(ctx context.Context, userID, categoryID string) (*models.DailyStudyStats, error) {
	if err := requireIDs(userID, categoryID); err != nil {
		return nil, err
	}
	return r.reconciler.ReconcileToday(ctx, userID, categoryID)
}

// FinishSession completes the session and refreshes today's stats.
// A failed stats refresh does not undo or fail the completion; the next
// reconciliation repairs the snapshot.
func (r *Recorder) FinishSession(ctx context.Context, userID, sessionID, categoryID string) (*models.UserSessionProgress, error) {
	progress, err := r.CompleteSession(ctx, userID, sessionID, categoryID)
	if err != nil {
		return nil, err
	}
	if _, err := r.UpdateDailyStats(ctx, userID, categoryID); err != nil {
		r.log.Warn("daily stats refresh failed after session completion",
			"session_id", sessionID,
			"category_id", categoryID,
			"error", err,
		)
	}
	return progress, nil
}

// GetDailyStats returns stored snapshots, newest day first. Empty bounds are open.
func (r *Recorder) GetDailyStats(ctx context.Context, userID, from, to string) ([]models.DailyStudyStats, error) {
	for _, day := range []string{from, to} {
		if day == "" {
			continue
		}
		if _, err := localdate.ParseDay(day); err != nil {
			return nil, err
		}
	}

	rows, err := r.stats.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StudyDate > rows[j].StudyDate
	})
	return rows, nil
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			return ErrMissingID
		}
	}
	return nil
}
