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

const expressionProgressColumns = `id, user_id, expression_id, session_id, category_id, completed_at, created_at`

// ExpressionProgressRepository handles database operations for user_expression_progress
type ExpressionProgressRepository struct {
	db *sqlx.DB
}

// NewExpressionProgressRepository creates a new repository instance
func NewExpressionProgressRepository(db *sqlx.DB) *ExpressionProgressRepository {
	return &ExpressionProgressRepository{db: db}
}

// MarkCompleted upserts the (user, expression) fact; re-completion moves completed_at
func (r *ExpressionProgressRepository) MarkCompleted(ctx context.Context, userID, expressionID, sessionID, categoryID string, at time.Time) (*models.UserExpressionProgress, error) {
	completedAt := timestamp(at)
	query := r.db.Rebind(`
		INSERT INTO user_expression_progress (` + expressionProgressColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, expression_id) DO UPDATE SET
			completed_at = excluded.completed_at,
			session_id = excluded.session_id,
			category_id = excluded.category_id
	`)
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(),
		userID,
		expressionID,
		sessionID,
		categoryID,
		completedAt,
		completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete expression: %w", err)
	}

	progress, err := r.GetByUserAndExpression(ctx, userID, expressionID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, fmt.Errorf("expression progress for %s vanished after upsert", expressionID)
	}
	return progress, nil
}

// GetByUserAndExpression returns the fact for a user and expression, or nil
func (r *ExpressionProgressRepository) GetByUserAndExpression(ctx context.Context, userID, expressionID string) (*models.UserExpressionProgress, error) {
	var progress models.UserExpressionProgress
	query := r.db.Rebind(`SELECT ` + expressionProgressColumns + ` FROM user_expression_progress WHERE user_id = ? AND expression_id = ?`)
	err := r.db.GetContext(ctx, &progress, query, userID, expressionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expression progress: %w", err)
	}
	return &progress, nil
}

// ListByUser returns a user's expression facts, optionally for one session
func (r *ExpressionProgressRepository) ListByUser(ctx context.Context, userID, sessionID string) ([]models.UserExpressionProgress, error) {
	query := `SELECT ` + expressionProgressColumns + ` FROM user_expression_progress WHERE user_id = ?`
	args := []interface{}{userID}
	if sessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, sessionID)
	}

	var rows []models.UserExpressionProgress
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get expression progress: %w", err)
	}
	return rows, nil
}

// CountByUserAndExpression is used to verify the one-row-per-pair invariant
func (r *ExpressionProgressRepository) CountByUserAndExpression(ctx context.Context, userID, expressionID string) (int, error) {
	var n int
	query := r.db.Rebind(`SELECT COUNT(*) FROM user_expression_progress WHERE user_id = ? AND expression_id = ?`)
	if err := r.db.GetContext(ctx, &n, query, userID, expressionID); err != nil {
		return 0, fmt.Errorf("failed to count expression progress: %w", err)
	}
	return n, nil
}

// DeleteByUser removes all expression progress of a user
func (r *ExpressionProgressRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM user_expression_progress WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("failed to delete expression progress: %w", err)
	}
	return nil
}

// DeleteAll removes all expression progress
func (r *ExpressionProgressRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_expression_progress`); err != nil {
		return fmt.Errorf("failed to delete expression progress: %w", err)
	}
	return nil
}
