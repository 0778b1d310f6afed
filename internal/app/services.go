package app

import (
	"github.com/jmoiron/sqlx"

	"github.com/example/studyapp/internal/audio"
	"github.com/example/studyapp/internal/calendar"
	"github.com/example/studyapp/internal/catalog"
	"github.com/example/studyapp/internal/config"
	"github.com/example/studyapp/internal/excel"
	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/internal/progress"
	"github.com/example/studyapp/internal/settings"
	"github.com/example/studyapp/internal/stats"
)

type Services struct {
	Reconciler  *stats.Reconciler
	Initializer *stats.Initializer
	Recorder    *progress.Recorder
	Catalog     *catalog.Reader
	Calendar    *calendar.Aggregator
	Settings    *settings.Service
	Importer    *excel.Importer
	Player      *audio.Coordinator
}

func wireServices(db *sqlx.DB, cfg config.Config, zone *localdate.Zone, repos Repos, log *logger.Logger) Services {
	log.Debug("Wiring services...")
	reconciler := stats.NewReconciler(repos.Session, repos.SessionProgress, repos.DailyStats, repos.Category, zone, log)
	storage := audio.Storage{BaseURL: cfg.Storage.BaseURL, Bucket: cfg.Storage.AudioBucket}

	return Services{
		Reconciler:  reconciler,
		Initializer: stats.NewInitializer(reconciler, cfg.Study.UserID, log),
		Recorder:    progress.NewRecorder(repos.ExpressionProgress, repos.SessionProgress, reconciler, repos.DailyStats, zone, log),
		Catalog:     catalog.NewReader(repos.Category, repos.Session, repos.Expression, repos.SessionProgress, storage, zone, log),
		Calendar:    calendar.NewAggregator(repos.DailyStats, log),
		// expression facts first, stats rows last
		Settings: settings.NewService(repos.UserSettings, log, repos.ExpressionProgress, repos.SessionProgress, repos.DailyStats),
		Importer: excel.NewImporter(db, log),
		Player:   audio.NewCoordinator(),
	}
}
