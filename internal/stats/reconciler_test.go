package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studyapp/internal/database"
	"github.com/example/studyapp/internal/database/dbtest"
	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/pkg/models"
)

type fixture struct {
	db       *sqlx.DB
	zone     *localdate.Zone
	now      time.Time
	progress *database.SessionProgressRepository
	stats    *database.DailyStatsRepository
	rec      *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	f := &fixture{db: dbtest.Open(t)}
	f.now = time.Date(2026, 10, 15, 12, 0, 0, 0, loc)
	f.zone = localdate.NewZoneWithClock(loc, func() time.Time { return f.now })
	f.progress = database.NewSessionProgressRepository(f.db)
	f.stats = database.NewDailyStatsRepository(f.db)
	f.rec = NewReconciler(
		database.NewSessionRepository(f.db),
		f.progress,
		f.stats,
		database.NewCategoryRepository(f.db),
		f.zone,
		logger.Nop(),
	)
	return f
}

func (f *fixture) complete(t *testing.T, session models.Session, at time.Time) {
	t.Helper()
	_, err := f.progress.MarkCompleted(context.Background(), dbtest.UserID, session.ID, session.CategoryID, at)
	require.NoError(t, err)
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat, sessions := dbtest.Category(t, f.db, "Daily", "daily", 1, 4, 2)
	f.complete(t, sessions[0], f.now)
	f.complete(t, sessions[1], f.now.Add(-time.Hour))

	first, err := f.rec.Reconcile(ctx, dbtest.UserID, cat.ID, "2026-10-15")
	require.NoError(t, err)
	second, err := f.rec.Reconcile(ctx, dbtest.UserID, cat.ID, "2026-10-15")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.SessionsCompleted)
	assert.Equal(t, 4, second.TotalSessions)
	assert.Equal(t, first.SessionsCompleted, second.SessionsCompleted)
	assert.Equal(t, first.TotalSessions, second.TotalSessions)
}

func TestReconcileBucketsAroundMidnight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := f.zone.Location()
	cat, sessions := dbtest.Category(t, f.db, "Daily", "daily", 1, 2, 1)

	f.complete(t, sessions[0], time.Date(2026, 10, 14, 23, 59, 59, 0, loc))
	f.complete(t, sessions[1], time.Date(2026, 10, 15, 0, 0, 1, 0, loc))

	day1, err := f.rec.Reconcile(ctx, dbtest.UserID, cat.ID, "2026-10-14")
	require.NoError(t, err)
	day2, err := f.rec.Reconcile(ctx, dbtest.UserID, cat.ID, "2026-10-15")
	require.NoError(t, err)

	assert.NotEqual(t, day1.ID, day2.ID)
	assert.Equal(t, 1, day1.SessionsCompleted)
	assert.Equal(t, 1, day2.SessionsCompleted)
}

func TestReconcileIgnoresCachedTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat, _ := dbtest.Category(t, f.db, "Daily", "daily", 1, 3, 1)

	require.NoError(t, database.NewCategoryRepository(f.db).SetTotalSessions(ctx, cat.ID, 99))

	got, err := f.rec.ReconcileToday(ctx, dbtest.UserID, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalSessions)
	assert.Equal(t, "2026-10-15", got.StudyDate)
}

func TestReconcileRejectsBadDay(t *testing.T) {
	f := newFixture(t)
	_, err := f.rec.Reconcile(context.Background(), dbtest.UserID, "c", "15/10/2026")
	assert.Error(t, err)
}

func TestReconcileAllCreatesBaselineRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	daily, sessions := dbtest.Category(t, f.db, "Daily", "daily", 1, 2, 1)
	news, _ := dbtest.Category(t, f.db, "News", "news", 2, 5, 1)
	f.complete(t, sessions[0], f.now)

	rows, err := f.rec.ReconcileAll(ctx, dbtest.UserID, "2026-10-15")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	got, err := f.stats.Get(ctx, dbtest.UserID, news.ID, "2026-10-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.SessionsCompleted)
	assert.Equal(t, 5, got.TotalSessions)

	got, err = f.stats.Get(ctx, dbtest.UserID, daily.ID, "2026-10-15")
	require.NoError(t, err)
	assert.Equal(t, 1, got.SessionsCompleted)
}

func TestInitializerRunsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dbtest.Category(t, f.db, "Daily", "daily", 1, 2, 1)

	init := NewInitializer(f.rec, dbtest.UserID, logger.Nop())
	assert.True(t, init.Run(ctx))
	assert.False(t, init.Run(ctx))
	assert.Equal(t, "2026-10-15", init.Day())

	rows, err := f.stats.ListRange(ctx, dbtest.UserID, "", "")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestInitializerDayDuringRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dbtest.Category(t, f.db, "Daily", "daily", 1, 2, 1)
	init := NewInitializer(f.rec, dbtest.UserID, logger.Nop())

	var wg sync.WaitGroup
	for n := 0; n < 4; n++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			init.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			day := init.Day()
			assert.Contains(t, []string{"", "2026-10-15"}, day)
		}()
	}
	wg.Wait()
	assert.Equal(t, "2026-10-15", init.Day())
}

type failingCategories struct{}

func (failingCategories) ListIDs(context.Context) ([]string, error) {
	return nil, errors.New("store unavailable")
}

func TestInitializerSwallowsErrors(t *testing.T) {
	f := newFixture(t)
	rec := NewReconciler(database.NewSessionRepository(f.db), f.progress, f.stats, failingCategories{}, f.zone, logger.Nop())

	init := NewInitializer(rec, dbtest.UserID, logger.Nop())
	assert.True(t, init.Run(context.Background()))
}

func TestCompletedOn(t *testing.T) {
	f := newFixture(t)
	at := f.now
	rows := []models.UserSessionProgress{
		{Status: models.StatusCompleted, CompletedAt: &at},
		{Status: models.StatusInProgress, CompletedAt: &at},
		{Status: models.StatusCompleted},
	}
	assert.Equal(t, 1, CountCompletedOn(rows, f.zone, "2026-10-15"))
	assert.Equal(t, 0, CountCompletedOn(rows, f.zone, "2026-10-16"))
}
