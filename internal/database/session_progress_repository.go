package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/studyapp/pkg/models"
)

const sessionProgressColumns = `id, user_id, session_id, category_id, status, completed_at, created_at, updated_at`

// SessionProgressRepository handles database operations for user_session_progress
type SessionProgressRepository struct {
	db *sqlx.DB
}

// NewSessionProgressRepository creates a new repository instance
func NewSessionProgressRepository(db *sqlx.DB) *SessionProgressRepository {
	return &SessionProgressRepository{db: db}
}

// MarkCompleted sets a session to completed at the given instant.
// A single INSERT ... ON CONFLICT keeps at most one row per (user_id, session_id)
// even when completions race.
func (r *SessionProgressRepository) MarkCompleted(ctx context.Context, userID, sessionID, categoryID string, at time.Time) (*models.UserSessionProgress, error) {
	completedAt := timestamp(at)
	query := r.db.Rebind(`
		INSERT INTO user_session_progress (` + sessionProgressColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, session_id) DO UPDATE SET
			status = excluded.status,
			completed_at = excluded.completed_at,
			category_id = excluded.category_id,
			updated_at = excluded.updated_at
	`)
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(),
		userID,
		sessionID,
		categoryID,
		models.StatusCompleted,
		completedAt,
		completedAt,
		completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	progress, err := r.GetByUserAndSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, fmt.Errorf("session progress for %s vanished after upsert", sessionID)
	}
	return progress, nil
}

// GetByUserAndSession returns progress for a specific user and session, or nil
func (r *SessionProgressRepository) GetByUserAndSession(ctx context.Context, userID, sessionID string) (*models.UserSessionProgress, error) {
	var progress models.UserSessionProgress
	query := r.db.Rebind(`SELECT ` + sessionProgressColumns + ` FROM user_session_progress WHERE user_id = ? AND session_id = ?`)
	err := r.db.GetContext(ctx, &progress, query, userID, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session progress: %w", err)
	}
	return &progress, nil
}

// ListCompleted returns completed rows with a completion time for a user.
// An empty categoryID means every category.
func (r *SessionProgressRepository) ListCompleted(ctx context.Context, userID, categoryID string) ([]models.UserSessionProgress, error) {
	query := `SELECT ` + sessionProgressColumns + ` FROM user_session_progress
		WHERE user_id = ? AND status = ? AND completed_at IS NOT NULL`
	args := []interface{}{userID, models.StatusCompleted}
	if categoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY completed_at DESC`

	var rows []models.UserSessionProgress
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get completed sessions: %w", err)
	}
	return rows, nil
}

// Delete removes a single progress row
func (r *SessionProgressRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM user_session_progress WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete session progress: %w", err)
	}
	return nil
}

// DeleteByUser removes all session progress of a user
func (r *SessionProgressRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM user_session_progress WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("failed to delete session progress: %w", err)
	}
	return nil
}

// DeleteAll removes all session progress
func (r *SessionProgressRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_session_progress`); err != nil {
		return fmt.Errorf("failed to delete session progress: %w", err)
	}
	return nil
}
