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

const dailyStatsColumns = `id, user_id, category_id, study_date, sessions_completed, total_sessions, created_at, updated_at`

// DailyStatsRepository handles database operations for daily_study_stats
type DailyStatsRepository struct {
	db *sqlx.DB
}

// NewDailyStatsRepository creates a new repository instance
func NewDailyStatsRepository(db *sqlx.DB) *DailyStatsRepository {
	return &DailyStatsRepository{db: db}
}

// Upsert stores the snapshot keyed on (user_id, category_id, study_date)
func (r *DailyStatsRepository) Upsert(ctx context.Context, stats *models.DailyStudyStats) error {
	ts := now()
	query := r.db.Rebind(`
		INSERT INTO daily_study_stats (` + dailyStatsColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category_id, study_date) DO UPDATE SET
			sessions_completed = excluded.sessions_completed,
			total_sessions = excluded.total_sessions,
			updated_at = excluded.updated_at
	`)
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(),
		stats.UserID,
		stats.CategoryID,
		stats.StudyDate,
		stats.SessionsCompleted,
		stats.TotalSessions,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily stats: %w", err)
	}

	stored, err := r.Get(ctx, stats.UserID, stats.CategoryID, stats.StudyDate)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("daily stats for %s vanished after upsert", stats.StudyDate)
	}
	*stats = *stored
	return nil
}

// Get returns the snapshot for a user, category and day, or nil
func (r *DailyStatsRepository) Get(ctx context.Context, userID, categoryID, day string) (*models.DailyStudyStats, error) {
	var stats models.DailyStudyStats
	query := r.db.Rebind(`SELECT ` + dailyStatsColumns + ` FROM daily_study_stats
		WHERE user_id = ? AND category_id = ? AND study_date = ?`)
	err := r.db.GetContext(ctx, &stats, query, userID, categoryID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return &stats, nil
}

// ListRange returns a user's snapshots with category names, oldest day first.
// Empty bounds are open.
func (r *DailyStatsRepository) ListRange(ctx context.Context, userID, from, to string) ([]models.DailyStudyStats, error) {
	query := `
		SELECT s.id, s.user_id, s.category_id, s.study_date, s.sessions_completed, s.total_sessions,
			s.created_at, s.updated_at, COALESCE(c.name, 'Unknown') AS category_name
		FROM daily_study_stats s
		LEFT JOIN categories c ON c.id = s.category_id
		WHERE s.user_id = ?`
	args := []interface{}{userID}
	if from != "" {
		query += ` AND s.study_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND s.study_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY s.study_date ASC, c.display_order ASC, category_name ASC`

	var stats []models.DailyStudyStats
	if err := r.db.SelectContext(ctx, &stats, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return stats, nil
}

// DeleteByDay removes a user's snapshots of one day
func (r *DailyStatsRepository) DeleteByDay(ctx context.Context, userID, day string) error {
	query := r.db.Rebind(`DELETE FROM daily_study_stats WHERE user_id = ? AND study_date = ?`)
	if _, err := r.db.ExecContext(ctx, query, userID, day); err != nil {
		return fmt.Errorf("failed to delete daily stats: %w", err)
	}
	return nil
}

// DeleteByUser removes all snapshots of a user
func (r *DailyStatsRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM daily_study_stats WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("failed to delete daily stats: %w", err)
	}
	return nil
}

// DeleteAll removes all snapshots
func (r *DailyStatsRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM daily_study_stats`); err != nil {
		return fmt.Errorf("failed to delete daily stats: %w", err)
	}
	return nil
}
