package app

import (
	"github.com/jmoiron/sqlx"

	"github.com/example/studyapp/internal/database"
	"github.com/example/studyapp/internal/logger"
)

type Repos struct {
	Category           *database.CategoryRepository
	Session            *database.SessionRepository
	Expression         *database.ExpressionRepository
	SessionProgress    *database.SessionProgressRepository
	ExpressionProgress *database.ExpressionProgressRepository
	DailyStats         *database.DailyStatsRepository
	UserSettings       *database.UserSettingsRepository
}

func wireRepos(db *sqlx.DB, log *logger.Logger) Repos {
	log.Debug("Wiring repos...")
	return Repos{
		Category:           database.NewCategoryRepository(db),
		Session:            database.NewSessionRepository(db),
		Expression:         database.NewExpressionRepository(db),
		SessionProgress:    database.NewSessionProgressRepository(db),
		ExpressionProgress: database.NewExpressionProgressRepository(db),
		DailyStats:         database.NewDailyStatsRepository(db),
		UserSettings:       database.NewUserSettingsRepository(db),
	}
}
