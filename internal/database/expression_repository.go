package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/studyapp/pkg/models"
)

const expressionColumns = `id, session_id, display_order, english, korean, audio_url, metadata, created_at, updated_at`

// ExpressionRepository handles database operations for expressions
type ExpressionRepository struct {
	db *sqlx.DB
}

// NewExpressionRepository creates a new repository instance
func NewExpressionRepository(db *sqlx.DB) *ExpressionRepository {
	return &ExpressionRepository{db: db}
}

// ListBySession returns the expressions of a session in display order
func (r *ExpressionRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Expression, error) {
	var expressions []models.Expression
	query := r.db.Rebind(`SELECT ` + expressionColumns + ` FROM expressions WHERE session_id = ? ORDER BY display_order`)
	if err := r.db.SelectContext(ctx, &expressions, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to get expressions: %w", err)
	}
	return expressions, nil
}

// ReplaceForSession deletes a session's expressions and inserts the given ones.
// Rows missing english or korean are rejected before anything is deleted.
func (r *ExpressionRepository) ReplaceForSession(ctx context.Context, sessionID string, expressions []models.Expression) error {
	for i, e := range expressions {
		if e.English == "" || e.Korean == "" {
			return fmt.Errorf("expression %d of session %s is incomplete", i+1, sessionID)
		}
	}

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM expressions WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("failed to delete expressions: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO expressions (` + expressionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	ts := now()
	for i := range expressions {
		e := &expressions[i]
		e.ID = uuid.NewString()
		e.SessionID = sessionID
		e.CreatedAt, e.UpdatedAt = ts, ts
		if _, err := r.db.ExecContext(ctx, query,
			e.ID, e.SessionID, e.DisplayOrder, e.English, e.Korean, e.AudioURL, e.Metadata, e.CreatedAt, e.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create expression: %w", err)
		}
	}
	return nil
}

// DeleteAll removes every expression
func (r *ExpressionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expressions`); err != nil {
		return fmt.Errorf("failed to delete expressions: %w", err)
	}
	return nil
}
