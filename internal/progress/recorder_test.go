package progress

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
	"github.com/example/studyapp/internal/stats"
	"github.com/example/studyapp/pkg/models"
)

type env struct {
	db       *sqlx.DB
	now      time.Time
	zone     *localdate.Zone
	recorder *Recorder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	e := &env{db: dbtest.Open(t)}
	e.now = time.Date(2026, 10, 15, 9, 30, 0, 0, loc)
	e.zone = localdate.NewZoneWithClock(loc, func() time.Time { return e.now })

	sessionProgress := database.NewSessionProgressRepository(e.db)
	statsRepo := database.NewDailyStatsRepository(e.db)
	reconciler := stats.NewReconciler(
		database.NewSessionRepository(e.db),
		sessionProgress,
		statsRepo,
		database.NewCategoryRepository(e.db),
		e.zone,
		logger.Nop(),
	)
	e.recorder = NewRecorder(
		database.NewExpressionProgressRepository(e.db),
		sessionProgress,
		reconciler,
		statsRepo,
		e.zone,
		logger.Nop(),
	)
	return e
}

func (e *env) firstExpression(t *testing.T, session models.Session) models.Expression {
	t.Helper()
	list, err := database.NewExpressionRepository(e.db).ListBySession(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0]
}

func TestCompleteExpressionTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cat, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 1, 2)
	expr := e.firstExpression(t, sessions[0])

	first, err := e.recorder.CompleteExpression(ctx, dbtest.UserID, expr.ID, sessions[0].ID, cat.ID)
	require.NoError(t, err)

	e.now = e.now.Add(2 * time.Hour)
	second, err := e.recorder.CompleteExpression(ctx, dbtest.UserID, expr.ID, sessions[0].ID, cat.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.CompletedAt.After(first.CompletedAt))

	n, err := database.NewExpressionProgressRepository(e.db).CountByUserAndExpression(ctx, dbtest.UserID, expr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	done, err := e.recorder.IsExpressionCompleted(ctx, dbtest.UserID, expr.ID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestCompleteSessionConcurrentCallsKeepOneRow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cat, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 1, 1)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.recorder.CompleteSession(ctx, dbtest.UserID, sessions[0].ID, cat.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var n int
	require.NoError(t, e.db.Get(&n, `SELECT COUNT(*) FROM user_session_progress`))
	assert.Equal(t, 1, n)

	progress, err := e.recorder.GetSessionProgress(ctx, dbtest.UserID, sessions[0].ID)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, models.StatusCompleted, progress.Status)
	require.NotNil(t, progress.CompletedAt)
}

func TestGetSessionProgressMissing(t *testing.T) {
	e := newEnv(t)
	progress, err := e.recorder.GetSessionProgress(context.Background(), dbtest.UserID, "nope")
	require.NoError(t, err)
	assert.Nil(t, progress)
}

func TestCompleteRejectsMissingIDs(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.recorder.CompleteSession(ctx, dbtest.UserID, "", "c")
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = e.recorder.CompleteExpression(ctx, dbtest.UserID, "e", "s", "")
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestGetCompletedExpressionsOnlyToday(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cat, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 1, 2)
	list, err := database.NewExpressionRepository(e.db).ListBySession(ctx, sessions[0].ID)
	require.NoError(t, err)

	e.now = e.now.AddDate(0, 0, -1)
	_, err = e.recorder.CompleteExpression(ctx, dbtest.UserID, list[0].ID, sessions[0].ID, cat.ID)
	require.NoError(t, err)

	e.now = e.now.AddDate(0, 0, 1)
	_, err = e.recorder.CompleteExpression(ctx, dbtest.UserID, list[1].ID, sessions[0].ID, cat.ID)
	require.NoError(t, err)

	got, err := e.recorder.GetCompletedExpressions(ctx, dbtest.UserID, sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, list[1].ID, got[0].ExpressionID)

	all, err := e.recorder.GetCompletedExpressions(ctx, dbtest.UserID, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFinishSessionRefreshesStats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cat, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 3, 1)

	_, err := e.recorder.FinishSession(ctx, dbtest.UserID, sessions[0].ID, cat.ID)
	require.NoError(t, err)

	rows, err := e.recorder.GetDailyStats(ctx, dbtest.UserID, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-10-15", rows[0].StudyDate)
	assert.Equal(t, 1, rows[0].SessionsCompleted)
	assert.Equal(t, 3, rows[0].TotalSessions)
	assert.Equal(t, "Daily", rows[0].CategoryName)
}

type brokenReconciler struct{}

func (brokenReconciler) ReconcileToday(context.Context, string, string) (*models.DailyStudyStats, error) {
	return nil, errors.New("stats store down")
}

func TestFinishSessionSwallowsStatsFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cat, sessions := dbtest.Category(t, e.db, "Daily", "daily", 1, 1, 1)

	sessionProgress := database.NewSessionProgressRepository(e.db)
	rec := NewRecorder(
		database.NewExpressionProgressRepository(e.db),
		sessionProgress,
		brokenReconciler{},
		database.NewDailyStatsRepository(e.db),
		e.zone,
		logger.Nop(),
	)

	progress, err := rec.FinishSession(ctx, dbtest.UserID, sessions[0].ID, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, progress.Status)

	_, err = rec.UpdateDailyStats(ctx, dbtest.UserID, cat.ID)
	assert.Error(t, err)
}

func TestGetDailyStatsNewestFirst(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	cat, _ := dbtest.Category(t, e.db, "Daily", "daily", 1, 2, 1)
	repo := database.NewDailyStatsRepository(e.db)
	for _, day := range []string{"2026-10-13", "2026-10-15", "2026-10-14"} {
		require.NoError(t, repo.Upsert(ctx, &models.DailyStudyStats{
			UserID: dbtest.UserID, CategoryID: cat.ID, StudyDate: day, TotalSessions: 2,
		}))
	}

	rows, err := e.recorder.GetDailyStats(ctx, dbtest.UserID, "2026-10-14", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-10-15", rows[0].StudyDate)
	assert.Equal(t, "2026-10-14", rows[1].StudyDate)

	_, err = e.recorder.GetDailyStats(ctx, dbtest.UserID, "yesterday", "")
	assert.ErrorIs(t, err, localdate.ErrInvalidDay)
}
