// Package app wires repositories, services and transports for the commands.
package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/studyapp/internal/config"
	"github.com/example/studyapp/internal/database"
	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/internal/scheduler"
	"github.com/example/studyapp/internal/server"
)

type App struct {
	Config   config.Config
	Log      *logger.Logger
	DB       *sqlx.DB
	Zone     *localdate.Zone
	Repos    Repos
	Services Services
}

// Open connects to the configured database and wires everything on top of it
func Open(cfg config.Config, log *logger.Logger) (*App, error) {
	zone, err := localdate.NewZone(cfg.Study.Timezone)
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Info("database connected", "type", cfg.Database.Type)
	return New(cfg, db, zone, log), nil
}

// New wires an App over an existing connection
func New(cfg config.Config, db *sqlx.DB, zone *localdate.Zone, log *logger.Logger) *App {
	repos := wireRepos(db, log)
	return &App{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Zone:     zone,
		Repos:    repos,
		Services: wireServices(db, cfg, zone, repos, log),
	}
}

func (a *App) UserID() string {
	return a.Config.Study.UserID
}

// RouterConfig exposes every service over HTTP for the configured user
func (a *App) RouterConfig() server.RouterConfig {
	user := a.UserID()
	return server.RouterConfig{
		Log:             a.Log,
		CORSOrigins:     a.Config.HTTP.CORSOrigins,
		CatalogHandler:  server.NewCatalogHandler(a.Services.Catalog, user),
		ProgressHandler: server.NewProgressHandler(a.Services.Recorder, user),
		CalendarHandler: server.NewCalendarHandler(a.Services.Calendar, user),
		SettingsHandler: server.NewSettingsHandler(a.Services.Settings, user),
		ImportHandler:   server.NewImportHandler(a.Services.Importer, a.Log),
		HealthHandler:   server.NewHealthHandler(),
	}
}

func (a *App) HTTPServer() *server.Server {
	return server.NewServer(a.Config.HTTP.Addr, a.RouterConfig())
}

// Scheduler builds the periodic jobs; notifier may be nil
func (a *App) Scheduler(notifier scheduler.Notifier) *scheduler.Scheduler {
	return scheduler.New(a.Services.Reconciler, a.Services.Settings, a.Repos.SessionProgress, notifier, a.Zone, a.UserID(), a.Log)
}

func (a *App) Close() error {
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
