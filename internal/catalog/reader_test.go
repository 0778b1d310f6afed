package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyapp/internal/audio"
	"github.com/example/studyapp/internal/database"
	"github.com/example/studyapp/internal/database/dbtest"
	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/internal/stats"
	"github.com/example/studyapp/pkg/models"
)

type env struct {
	db       *sqlx.DB
	now      time.Time
	zone     *localdate.Zone
	progress *database.SessionProgressRepository
	reader   *Reader
}

func newEnv(t *testing.T) *env {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	e := &env{db: dbtest.Open(t)}
	e.now = time.Date(2026, 10, 15, 20, 0, 0, 0, loc)
	e.zone = localdate.NewZoneWithClock(loc, func() time.Time { return e.now })
	e.progress = database.NewSessionProgressRepository(e.db)
	e.reader = NewReader(
		database.NewCategoryRepository(e.db),
		database.NewSessionRepository(e.db),
		database.NewExpressionRepository(e.db),
		e.progress,
		audio.Storage{BaseURL: "https://store.test", Bucket: "audio-files"},
		e.zone,
		logger.Nop(),
	)
	return e
}

func (e *env) complete(t *testing.T, s models.Session, at time.Time) {
	t.Helper()
	_, err := e.progress.MarkCompleted(context.Background(), dbtest.UserID, s.ID, s.CategoryID, at)
	require.NoError(t, err)
}

func TestGetCategoryProgress(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 4, 1)

	e.complete(t, sessions[0], e.now.Add(-time.Hour))
	e.complete(t, sessions[1], e.now.AddDate(0, 0, -1))

	got, err := e.reader.GetCategoryProgress(ctx, dbtest.UserID, "daily")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.CompletedToday)
	require.Len(t, got.Sessions, 4)
	assert.Equal(t, 1, got.Sessions[0].SessionNumber)
	assert.True(t, got.Sessions[0].CompletedToday)
	assert.False(t, got.Sessions[1].CompletedToday)
	assert.Equal(t, StateCompleted, got.Sessions[0].State)
	assert.Equal(t, StateInProgress, got.Sessions[1].State)
	assert.Equal(t, StateLocked, got.Sessions[3].State)

	missing, err := e.reader.GetCategoryProgress(ctx, dbtest.UserID, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// The reader and the reconciler must agree on what "completed today" means,
// including right at the reference-day boundary.
func TestCategoryProgressAgreesWithReconciler(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	loc := e.zone.Location()
	cat, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 3, 1)

	e.complete(t, sessions[0], time.Date(2026, 10, 14, 23, 59, 59, 0, loc))
	e.complete(t, sessions[1], time.Date(2026, 10, 15, 0, 0, 1, 0, loc))
	e.complete(t, sessions[2], time.Date(2026, 10, 15, 23, 59, 59, 0, loc))

	statsRepo := database.NewDailyStatsRepository(e.db)
	rec := stats.NewReconciler(database.NewSessionRepository(e.db), e.progress, statsRepo,
		database.NewCategoryRepository(e.db), e.zone, logger.Nop())
	snapshot, err := rec.ReconcileToday(ctx, dbtest.UserID, cat.ID)
	require.NoError(t, err)

	got, err := e.reader.GetCategoryProgress(ctx, dbtest.UserID, "daily")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CompletedToday)
	assert.Equal(t, snapshot.SessionsCompleted, got.CompletedToday)
}

func TestCategoryProgressIgnoresStatsTable(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cat, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 2, 1)
	e.complete(t, sessions[0], e.now)

	require.NoError(t, database.NewDailyStatsRepository(e.db).Upsert(ctx, &models.DailyStudyStats{
		UserID: dbtest.UserID, CategoryID: cat.ID, StudyDate: "2026-10-15", SessionsCompleted: 9, TotalSessions: 9,
	}))

	got, err := e.reader.GetCategoryProgress(ctx, dbtest.UserID, "daily")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CompletedToday)
}

func TestListCategoriesAndOverview(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, daily := dbtest.Category(t, e.db, "Daily", "daily", 1, 3, 1)
	dbtest.Category(t, e.db, "News", "news", 2, 4, 1)
	e.complete(t, daily[0], e.now)
	e.complete(t, daily[1], e.now)

	list, err := e.reader.ListCategories(ctx, dbtest.UserID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Daily", list[0].Name)
	assert.Equal(t, 2, list[0].Completed)
	assert.Equal(t, 3, list[0].Total)
	assert.Equal(t, 67, list[0].Percentage)
	assert.Equal(t, 0, list[1].Completed)

	o, err := e.reader.Overview(ctx, dbtest.UserID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", o.Date)
	assert.Equal(t, 2, o.Completed)
	assert.Equal(t, 7, o.Total)
	assert.InDelta(t, 28.57, o.Percentage, 0.0001)
}

func TestGetSessionResolvesAudio(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cat, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 2, 0)

	path := audio.BuildPath("daily", "Daily_001_1.mp3")
	require.NoError(t, database.NewExpressionRepository(e.db).ReplaceForSession(ctx, sessions[0].ID, []models.Expression{
		{DisplayOrder: 2, English: "second", Korean: "둘째"},
		{DisplayOrder: 1, English: "first", Korean: "첫째", AudioURL: &path},
	}))

	detail, err := e.reader.GetSession(ctx, cat.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Len(t, detail.Expressions, 2)
	assert.Equal(t, "first", detail.Expressions[0].English)
	require.NotNil(t, detail.Expressions[0].AudioURL)
	assert.Equal(t, "https://store.test/storage/v1/object/public/audio-files/daily/Daily_001_1.mp3", *detail.Expressions[0].AudioURL)
	assert.Nil(t, detail.Expressions[1].AudioURL)
	assert.Equal(t, 2, detail.NextSession)

	last, err := e.reader.GetSession(ctx, cat.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, last.NextSession)

	withImages := sessions[1]
	withImages.Metadata = models.Metadata{"images": []string{"news/chart.png", "https://img.test/a.png"}}
	require.NoError(t, database.NewSessionRepository(e.db).Upsert(ctx, &withImages))
	last, err = e.reader.GetSession(ctx, cat.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://store.test/storage/v1/object/public/audio-files/news/chart.png",
		"https://img.test/a.png",
	}, last.Metadata.Strings("images"))

	missing, err := e.reader.GetSession(ctx, cat.ID, 9)
	require.NoError(t, err)
	assert.Nil(t, missing)

	next, err := e.reader.NextSessionNumber(ctx, cat.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}
