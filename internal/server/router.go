package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/studyapp/internal/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	CORSOrigins []string

	CatalogHandler  *CatalogHandler
	ProgressHandler *ProgressHandler
	CalendarHandler *CalendarHandler
	SettingsHandler *SettingsHandler
	ImportHandler   *ImportHandler

	HealthHandler *HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Log))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.CatalogHandler != nil {
			api.GET("/overview", cfg.CatalogHandler.Overview)
			api.GET("/categories", cfg.CatalogHandler.ListCategories)
			api.GET("/categories/:slug", cfg.CatalogHandler.GetCategory)
			api.GET("/categories/:slug/sessions/:number", cfg.CatalogHandler.GetSession)
		}

		if cfg.ProgressHandler != nil {
			api.GET("/sessions/:id/progress", cfg.ProgressHandler.GetSessionProgress)
			api.GET("/sessions/:id/expressions/completed", cfg.ProgressHandler.GetCompletedExpressions)
			api.POST("/sessions/:id/complete", cfg.ProgressHandler.CompleteSession)
			api.POST("/expressions/:id/complete", cfg.ProgressHandler.CompleteExpression)
			api.GET("/stats", cfg.ProgressHandler.GetDailyStats)
		}

		if cfg.CalendarHandler != nil {
			api.GET("/calendar/:year/:month", cfg.CalendarHandler.GetMonth)
		}

		if cfg.SettingsHandler != nil {
			api.GET("/settings", cfg.SettingsHandler.GetSettings)
			api.PATCH("/settings", cfg.SettingsHandler.UpdateSettings)
			api.POST("/settings/reset", cfg.SettingsHandler.ResetProgress)
		}

		if cfg.ImportHandler != nil {
			api.POST("/import", cfg.ImportHandler.Import)
		}
	}

	return r
}

type Server struct {
	Engine *gin.Engine
	http   *http.Server
}

func NewServer(address string, cfg RouterConfig) *Server {
	engine := NewRouter(cfg)
	return &Server{
		Engine: engine,
		http: &http.Server{
			Addr:              address,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until the listener fails or Shutdown is called
func (s *Server) Run() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
