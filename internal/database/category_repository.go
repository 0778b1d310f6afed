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

const categoryColumns = `id, name, slug, display_order, description, content_type, total_sessions, created_at, updated_at`

// CategoryRepository handles database operations for categories
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new repository instance
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetAll returns all categories in display order
func (r *CategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY display_order, name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// ListIDs returns the ids of all categories
func (r *CategoryRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM categories ORDER BY display_order, name`); err != nil {
		return nil, fmt.Errorf("failed to list category ids: %w", err)
	}
	return ids, nil
}

// GetByID returns a category by id, or nil if it doesn't exist
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
}

// GetBySlug returns a category by slug, or nil if it doesn't exist
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug)
}

func (r *CategoryRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Category, error) {
	var category models.Category
	err := r.db.GetContext(ctx, &category, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// Create inserts a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	ts := now()
	category.CreatedAt, category.UpdatedAt = ts, ts

	query := r.db.Rebind(`
		INSERT INTO categories (` + categoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Slug,
		category.DisplayOrder,
		category.Description,
		category.ContentType,
		category.TotalSessions,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// SetTotalSessions overwrites the denormalized session count
func (r *CategoryRepository) SetTotalSessions(ctx context.Context, id string, total int) error {
	query := r.db.Rebind(`UPDATE categories SET total_sessions = ?, updated_at = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, total, now(), id); err != nil {
		return fmt.Errorf("failed to update total sessions: %w", err)
	}
	return nil
}

// RecountTotalSessions recomputes total_sessions from the sessions table
func (r *CategoryRepository) RecountTotalSessions(ctx context.Context, id string) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM sessions WHERE category_id = ?`), id)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return total, r.SetTotalSessions(ctx, id, total)
}

// ResetAllTotals zeroes total_sessions on every category
func (r *CategoryRepository) ResetAllTotals(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE categories SET total_sessions = 0, updated_at = ?`), now()); err != nil {
		return fmt.Errorf("failed to reset category totals: %w", err)
	}
	return nil
}
