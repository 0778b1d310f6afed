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

const sessionColumns = `id, category_id, session_number, title, pattern_english, pattern_korean, description, metadata, created_at, updated_at`

// SessionRepository handles database operations for sessions
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CountByCategory counts the session rows of a category
func (r *SessionRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM sessions WHERE category_id = ?`), categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return total, nil
}

// ListByCategory returns the sessions of a category ordered by number
func (r *SessionRepository) ListByCategory(ctx context.Context, categoryID string) ([]models.Session, error) {
	var sessions []models.Session
	query := r.db.Rebind(`SELECT ` + sessionColumns + ` FROM sessions WHERE category_id = ? ORDER BY session_number`)
	if err := r.db.SelectContext(ctx, &sessions, query, categoryID); err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	return sessions, nil
}

// GetByID returns a session by id, or nil if it doesn't exist
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, r.db.Rebind(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// GetByNumber returns a session by its number inside a category, or nil
func (r *SessionRepository) GetByNumber(ctx context.Context, categoryID string, number int) (*models.Session, error) {
	var session models.Session
	query := r.db.Rebind(`SELECT ` + sessionColumns + ` FROM sessions WHERE category_id = ? AND session_number = ?`)
	err := r.db.GetContext(ctx, &session, query, categoryID, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// NextNumber returns the smallest session number above current, or 0
func (r *SessionRepository) NextNumber(ctx context.Context, categoryID string, current int) (int, error) {
	var next sql.NullInt64
	query := r.db.Rebind(`SELECT MIN(session_number) FROM sessions WHERE category_id = ? AND session_number > ?`)
	if err := r.db.GetContext(ctx, &next, query, categoryID, current); err != nil {
		return 0, fmt.Errorf("failed to get next session: %w", err)
	}
	if !next.Valid {
		return 0, nil
	}
	return int(next.Int64), nil
}

// Upsert creates or updates a session keyed on (category_id, session_number)
func (r *SessionRepository) Upsert(ctx context.Context, session *models.Session) error {
	ts := now()
	query := r.db.Rebind(`
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (category_id, session_number) DO UPDATE SET
			title = excluded.title,
			pattern_english = excluded.pattern_english,
			pattern_korean = excluded.pattern_korean,
			description = excluded.description,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`)
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(),
		session.CategoryID,
		session.SessionNumber,
		session.Title,
		session.PatternEnglish,
		session.PatternKorean,
		session.Description,
		session.Metadata,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	stored, err := r.GetByNumber(ctx, session.CategoryID, session.SessionNumber)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("session %d vanished after upsert", session.SessionNumber)
	}
	*session = *stored
	return nil
}

// DeleteAll removes every session
func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}
