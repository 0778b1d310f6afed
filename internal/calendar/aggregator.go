// Package calendar builds the month view of study activity from daily snapshots.
package calendar

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/logger"
	"github.com/example/studyapp/pkg/models"
)

// Status of a calendar day
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusPartial    Status = "partial"
	StatusNotStudied Status = "not-studied"
)

// StatsReader reads snapshots between two inclusive days
type StatsReader interface {
	ListRange(ctx context.Context, userID, from, to string) ([]models.DailyStudyStats, error)
}

// CategoryBreakdown is one category's snapshot on a day
type CategoryBreakdown struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Completed    int    `json:"completed"`
	Total        int    `json:"total"`
}

// Day is one cell of the month view
type Day struct {
	Date              string              `json:"date"`
	Day               int                 `json:"day"`
	Weekday           time.Weekday        `json:"weekday"`
	SessionsCompleted int                 `json:"sessions_completed"`
	TotalSessions     int                 `json:"total_sessions"`
	Percentage        int                 `json:"percentage"`
	Status            Status              `json:"status"`
	Categories        []CategoryBreakdown `json:"categories"`
}

// Aggregator folds daily_study_stats rows into calendar days
type Aggregator struct {
	stats StatsReader
	log   *logger.Logger
}

// NewAggregator creates a calendar aggregator
func NewAggregator(stats StatsReader, log *logger.Logger) *Aggregator {
	return &Aggregator{stats: stats, log: log.With("component", "calendar.Aggregator")}
}

// GetMonth returns one entry per day of the month in day order.
// Days without snapshots are present as not-studied placeholders.
func (a *Aggregator) GetMonth(ctx context.Context, userID string, year int, month time.Month) ([]Day, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	first, last := localdate.MonthBounds(year, month)
	rows, err := a.stats.ListRange(ctx, userID, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to load month %04d-%02d: %w", year, month, err)
	}

	byDay := make(map[string][]models.DailyStudyStats)
	for _, row := range rows {
		byDay[row.StudyDate] = append(byDay[row.StudyDate], row)
	}

	n := localdate.DaysIn(year, month)
	days := make([]Day, 0, n)
	for d := 1; d <= n; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		days = append(days, buildDay(date, byDay[date.Format(localdate.Layout)]))
	}

	a.log.Debug("month aggregated", "year", year, "month", int(month), "rows", len(rows))
	return days, nil
}

func buildDay(date time.Time, rows []models.DailyStudyStats) Day {
	day := Day{
		Date:       date.Format(localdate.Layout),
		Day:        date.Day(),
		Weekday:    date.Weekday(),
		Categories: make([]CategoryBreakdown, 0, len(rows)),
	}
	for _, row := range rows {
		day.SessionsCompleted += row.SessionsCompleted
		day.TotalSessions += row.TotalSessions

		name := row.CategoryName
		if name == "" {
			name = "Unknown"
		}
		day.Categories = append(day.Categories, CategoryBreakdown{
			CategoryID:   row.CategoryID,
			CategoryName: name,
			Completed:    row.SessionsCompleted,
			Total:        row.TotalSessions,
		})
	}
	day.Percentage = Percentage(day.SessionsCompleted, day.TotalSessions)
	day.Status = StatusFor(day.Percentage)
	return day
}

// Percentage is round(100*completed/total), or 0 when there is nothing to do
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// StatusFor derives the day status from its rounded percentage
func StatusFor(percentage int) Status {
	switch {
	case percentage >= 100:
		return StatusCompleted
	case percentage > 0:
		return StatusPartial
	default:
		return StatusNotStudied
	}
}

// MonthSummary condenses a month view
type MonthSummary struct {
	StudiedDays       int `json:"studied_days"`
	CompletedDays     int `json:"completed_days"`
	SessionsCompleted int `json:"sessions_completed"`
	Streak            int `json:"streak"`
}

// Summary counts studied and completed days. Streak is the run of consecutive
// studied days ending at the last studied day of the month.
func Summary(days []Day) MonthSummary {
	var s MonthSummary
	run := 0
	for _, d := range days {
		s.SessionsCompleted += d.SessionsCompleted
		if d.SessionsCompleted == 0 {
			run = 0
			continue
		}
		s.StudiedDays++
		if d.Status == StatusCompleted {
			s.CompletedDays++
		}
		run++
		s.Streak = run
	}
	return s
}
