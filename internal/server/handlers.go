package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/studyapp/internal/calendar"
	"github.com/example/studyapp/internal/catalog"
	"github.com/example/studyapp/internal/excel"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/internal/progress"
	"github.com/example/studyapp/internal/settings"
	"github.com/example/studyapp/pkg/models"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// CatalogHandler serves categories and sessions with the user's progress
type CatalogHandler struct {
	reader *catalog.Reader
	userID string
}

func NewCatalogHandler(reader *catalog.Reader, userID string) *CatalogHandler {
	return &CatalogHandler{reader: reader, userID: userID}
}

// GET /overview
func (h *CatalogHandler) Overview(c *gin.Context) {
	overview, err := h.reader.Overview(c.Request.Context(), h.userID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, overview)
}

// GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.reader.ListCategories(c.Request.Context(), h.userID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"categories": categories})
}

// GET /categories/:slug
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	p, err := h.reader.GetCategoryProgress(c.Request.Context(), h.userID, c.Param("slug"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	if p == nil {
		respondNotFound(c, "category")
		return
	}
	RespondOK(c, p)
}

// GET /categories/:slug/sessions/:number
func (h *CatalogHandler) GetSession(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("session number must be a positive integer"))
		return
	}

	ctx := c.Request.Context()
	category, err := h.reader.Category(ctx, c.Param("slug"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	if category == nil {
		respondNotFound(c, "category")
		return
	}

	detail, err := h.reader.GetSession(ctx, category.ID, number)
	if err != nil {
		respondFailure(c, err)
		return
	}
	if detail == nil {
		respondNotFound(c, "session")
		return
	}
	RespondOK(c, gin.H{"category": category, "session": detail})
}

// ProgressHandler records completions
type ProgressHandler struct {
	recorder *progress.Recorder
	userID   string
}

func NewProgressHandler(recorder *progress.Recorder, userID string) *ProgressHandler {
	return &ProgressHandler{recorder: recorder, userID: userID}
}

// GET /sessions/:id/progress
func (h *ProgressHandler) GetSessionProgress(c *gin.Context) {
	p, err := h.recorder.GetSessionProgress(c.Request.Context(), h.userID, c.Param("id"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": p})
}

// GET /sessions/:id/expressions/completed
func (h *ProgressHandler) GetCompletedExpressions(c *gin.Context) {
	rows, err := h.recorder.GetCompletedExpressions(c.Request.Context(), h.userID, c.Param("id"))
	if err != nil {
		respondFailure(c, err)
		return
	}
	if rows == nil {
		rows = []models.UserExpressionProgress{}
	}
	RespondOK(c, gin.H{"expressions": rows})
}

// POST /expressions/:id/complete
// body: { "session_id": "...", "category_id": "..." }
func (h *ProgressHandler) CompleteExpression(c *gin.Context) {
	var req struct {
		SessionID  string `json:"session_id"`
		CategoryID string `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	p, err := h.recorder.CompleteExpression(c.Request.Context(), h.userID, c.Param("id"), req.SessionID, req.CategoryID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": p})
}

// POST /sessions/:id/complete
// body: { "category_id": "..." }
func (h *ProgressHandler) CompleteSession(c *gin.Context) {
	var req struct {
		CategoryID string `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	p, err := h.recorder.FinishSession(c.Request.Context(), h.userID, c.Param("id"), req.CategoryID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": p})
}

// GET /stats?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ProgressHandler) GetDailyStats(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("from and to are required"))
		return
	}

	rows, err := h.recorder.GetDailyStats(c.Request.Context(), h.userID, from, to)
	if err != nil {
		respondFailure(c, err)
		return
	}
	if rows == nil {
		rows = []models.DailyStudyStats{}
	}
	RespondOK(c, gin.H{"stats": rows})
}

// CalendarHandler serves the month view
type CalendarHandler struct {
	aggregator *calendar.Aggregator
	userID     string
}

func NewCalendarHandler(aggregator *calendar.Aggregator, userID string) *CalendarHandler {
	return &CalendarHandler{aggregator: aggregator, userID: userID}
}

// GET /calendar/:year/:month
func (h *CalendarHandler) GetMonth(c *gin.Context) {
	year, yerr := strconv.Atoi(c.Param("year"))
	month, merr := strconv.Atoi(c.Param("month"))
	if yerr != nil || merr != nil || year < 1 || month < 1 || month > 12 {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("expected /calendar/YYYY/MM"))
		return
	}

	days, err := h.aggregator.GetMonth(c.Request.Context(), h.userID, year, time.Month(month))
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{
		"year":    year,
		"month":   month,
		"days":    days,
		"summary": calendar.Summary(days),
	})
}

// SettingsHandler reads and patches the user's settings
type SettingsHandler struct {
	service *settings.Service
	userID  string
}

func NewSettingsHandler(service *settings.Service, userID string) *SettingsHandler {
	return &SettingsHandler{service: service, userID: userID}
}

// GET /settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	s, err := h.service.Load(c.Request.Context(), h.userID)
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"settings": s})
}

// PATCH /settings
// body: any subset of { "auto_play_audio", "daily_reminder", "daily_goal", "dark_mode", "reminder_time" }
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req models.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	s, err := h.service.Update(c.Request.Context(), h.userID, req)
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"settings": s})
}

// POST /settings/reset
func (h *SettingsHandler) ResetProgress(c *gin.Context) {
	if err := h.service.ResetProgress(c.Request.Context(), h.userID); err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

// ImportHandler runs the content importer against a file on the server
type ImportHandler struct {
	importer *excel.Importer
	log      *logger.Logger
}

func NewImportHandler(importer *excel.Importer, log *logger.Logger) *ImportHandler {
	return &ImportHandler{importer: importer, log: log.With("component", "server.ImportHandler")}
}

// POST /import
// body: { "file": "...", "sheet": "Sheet1", "type": "daily", "category": "...", "slug": "..." }
func (h *ImportHandler) Import(c *gin.Context) {
	var req struct {
		File     string `json:"file" binding:"required"`
		Sheet    string `json:"sheet"`
		Type     string `json:"type"`
		Category string `json:"category"`
		Slug     string `json:"slug"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = req.File
	cfg.CategoryName = req.Category
	cfg.CategorySlug = req.Slug
	if req.Sheet != "" {
		cfg.SheetName = req.Sheet
	}
	if req.Type != "" {
		ct, err := excel.ParseContentType(req.Type)
		if err != nil {
			respondFailure(c, err)
			return
		}
		cfg.ContentType = ct
	}

	result, err := h.importer.Import(c.Request.Context(), cfg)
	if err != nil {
		respondFailure(c, err)
		return
	}
	h.log.Info("content imported", "file", req.File, "slug", req.Slug, "sessions", result.SessionsUpserted)
	RespondOK(c, result)
}
