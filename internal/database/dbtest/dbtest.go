// Package dbtest opens throwaway in-memory databases and seeds study content for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/example/studyapp/internal/database"
	"github.com/example/studyapp/pkg/models"
)

// UserID is the user every test acts as
const UserID = "00000000-0000-0000-0000-000000000001"

// Open returns an in-memory SQLite database with the full schema
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// Category creates a category with the given number of sessions, each holding
// expressionsPerSession expressions. total_sessions is recounted afterwards.
func Category(t *testing.T, db *sqlx.DB, name, slug string, order, sessions, expressionsPerSession int) (*models.Category, []models.Session) {
	t.Helper()
	ctx := context.Background()

	s := slug
	category := &models.Category{Name: name, Slug: &s, DisplayOrder: order, ContentType: "daily"}
	require.NoError(t, database.NewCategoryRepository(db).Create(ctx, category))

	sessionRepo := database.NewSessionRepository(db)
	expressionRepo := database.NewExpressionRepository(db)

	out := make([]models.Session, 0, sessions)
	for n := 1; n <= sessions; n++ {
		session := &models.Session{
			CategoryID:    category.ID,
			SessionNumber: n,
			Title:         fmt.Sprintf("%s %d", name, n),
		}
		require.NoError(t, sessionRepo.Upsert(ctx, session))

		expressions := make([]models.Expression, 0, expressionsPerSession)
		for e := 1; e <= expressionsPerSession; e++ {
			expressions = append(expressions, models.Expression{
				DisplayOrder: e,
				English:      fmt.Sprintf("english %d-%d", n, e),
				Korean:       fmt.Sprintf("korean %d-%d", n, e),
			})
		}
		require.NoError(t, expressionRepo.ReplaceForSession(ctx, session.ID, expressions))
		out = append(out, *session)
	}

	total, err := database.NewCategoryRepository(db).RecountTotalSessions(ctx, category.ID)
	require.NoError(t, err)
	category.TotalSessions = total
	return category, out
}
