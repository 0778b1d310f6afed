// Package catalog reads categories and sessions together with the user's
// progress on them. Progress is always computed from the raw completion facts,
// so a stale or missing daily_study_stats table never affects these views.
package catalog

import (
	"context"
	"fmt"
	"math"

	"github.com/example/studyapp/internal/audio"
	"github.com/example/studyapp/internal/calendar"
	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/internal/stats"
	"github.com/example/studyapp/pkg/models"
)

// SessionState is how a session is shown on the category screen
type SessionState string

const (
	StateCompleted  SessionState = "completed"
	StateInProgress SessionState = "in-progress"
	StateLocked     SessionState = "locked"
)

// CategoryStore reads categories
type CategoryStore interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// SessionStore reads sessions
type SessionStore interface {
	CountByCategory(ctx context.Context, categoryID string) (int, error)
	ListByCategory(ctx context.Context, categoryID string) ([]models.Session, error)
	GetByNumber(ctx context.Context, categoryID string, number int) (*models.Session, error)
	NextNumber(ctx context.Context, categoryID string, current int) (int, error)
}

// ExpressionStore reads expressions
type ExpressionStore interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Expression, error)
}

// SessionView is a session with the user's state on it
type SessionView struct {
	models.Session
	State          SessionState `json:"state"`
	CompletedToday bool         `json:"completed_today"`
}

// CategoryProgress is the category screen
type CategoryProgress struct {
	Category       models.Category `json:"category"`
	Sessions       []SessionView   `json:"sessions"`
	CompletedToday int             `json:"completed_today"`
}

// CategorySummary is a category card with today's progress
type CategorySummary struct {
	models.Category
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Overview is the home screen
type Overview struct {
	Date       string            `json:"date"`
	Completed  int               `json:"completed"`
	Total      int               `json:"total"`
	Percentage float64           `json:"percentage"`
	Categories []CategorySummary `json:"categories"`
}

// SessionDetail is a session with its expressions, ready to play
type SessionDetail struct {
	models.Session
	Expressions []models.Expression `json:"expressions"`
	NextSession int                 `json:"next_session,omitempty"`
}

// Reader answers catalog queries for the progress screens
type Reader struct {
	categories  CategoryStore
	sessions    SessionStore
	expressions ExpressionStore
	progress    stats.CompletedSessionLister
	storage     audio.Storage
	zone        *localdate.Zone
	log         *logger.Logger
}

// NewReader creates a catalog reader
func NewReader(categories CategoryStore, sessions SessionStore, expressions ExpressionStore, progress stats.CompletedSessionLister, storage audio.Storage, zone *localdate.Zone, log *logger.Logger) *Reader {
	return &Reader{
		categories:  categories,
		sessions:    sessions,
		expressions: expressions,
		progress:    progress,
		storage:     storage,
		zone:        zone,
		log:         log.With("component", "catalog.Reader"),
	}
}

// Category resolves a category by slug, or nil
func (r *Reader) Category(ctx context.Context, slug string) (*models.Category, error) {
	return r.categories.GetBySlug(ctx, slug)
}

// GetCategoryProgress returns the sessions of a category and how many of them
// the user completed today. It returns nil when the slug is unknown.
func (r *Reader) GetCategoryProgress(ctx context.Context, userID, slug string) (*CategoryProgress, error) {
	category, err := r.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}

	sessions, err := r.sessions.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}
	rows, err := r.progress.ListCompleted(ctx, userID, category.ID)
	if err != nil {
		return nil, err
	}

	today := r.zone.Today()
	completed := stats.CountCompletedOn(rows, r.zone, today)

	doneToday := make(map[string]bool, len(rows))
	for _, row := range rows {
		if stats.CompletedOn(row, r.zone, today) {
			doneToday[row.SessionID] = true
		}
	}

	views := make([]SessionView, 0, len(sessions))
	for i, s := range sessions {
		views = append(views, SessionView{
			Session:        s,
			State:          stateAt(i, completed),
			CompletedToday: doneToday[s.ID],
		})
	}

	return &CategoryProgress{
		Category:       *category,
		Sessions:       views,
		CompletedToday: completed,
	}, nil
}

func stateAt(index, completed int) SessionState {
	switch {
	case index < completed:
		return StateCompleted
	case index == completed:
		return StateInProgress
	default:
		return StateLocked
	}
}

// ListCategories returns every category in display order with today's progress
func (r *Reader) ListCategories(ctx context.Context, userID string) ([]CategorySummary, error) {
	categories, err := r.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.progress.ListCompleted(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	today := r.zone.Today()
	byCategory := make(map[string][]models.UserSessionProgress)
	for _, row := range rows {
		byCategory[row.CategoryID] = append(byCategory[row.CategoryID], row)
	}

	out := make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		total, err := r.sessions.CountByCategory(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		completed := stats.CountCompletedOn(byCategory[c.ID], r.zone, today)
		out = append(out, CategorySummary{
			Category:   c,
			Completed:  completed,
			Total:      total,
			Percentage: calendar.Percentage(completed, total),
		})
	}
	return out, nil
}

// Overview totals today's progress across all categories
func (r *Reader) Overview(ctx context.Context, userID string) (*Overview, error) {
	categories, err := r.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	o := &Overview{Date: r.zone.Today(), Categories: categories}
	for _, c := range categories {
		o.Completed += c.Completed
		o.Total += c.Total
	}
	if o.Total > 0 {
		o.Percentage = math.Round(float64(o.Completed)/float64(o.Total)*100*100) / 100
	}
	return o, nil
}

// GetSession returns a session with its expressions in display order and
// audio paths resolved to public URLs. It returns nil when there is no such session.
func (r *Reader) GetSession(ctx context.Context, categoryID string, number int) (*SessionDetail, error) {
	session, err := r.sessions.GetByNumber(ctx, categoryID, number)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	expressions, err := r.expressions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expressions of session %d: %w", number, err)
	}
	for i := range expressions {
		if p := expressions[i].AudioURL; p != nil {
			resolved := r.storage.PublicURL(*p)
			expressions[i].AudioURL = &resolved
		}
	}
	if path := session.Metadata.String("pattern_audio_url"); path != "" {
		session.Metadata["pattern_audio_url"] = r.storage.PublicURL(path)
	}
	if images := session.Metadata.Strings("images"); len(images) > 0 {
		urls := make([]string, len(images))
		for i, p := range images {
			urls[i] = r.storage.PublicURL(p)
		}
		session.Metadata["images"] = urls
	}

	next, err := r.sessions.NextNumber(ctx, categoryID, number)
	if err != nil {
		return nil, err
	}

	return &SessionDetail{Session: *session, Expressions: expressions, NextSession: next}, nil
}

// NextSessionNumber returns the next session number after current, or 0 at the end
func (r *Reader) NextSessionNumber(ctx context.Context, categoryID string, current int) (int, error) {
	return r.sessions.NextNumber(ctx, categoryID, current)
}
