package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/studyapp/internal/calendar"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar [YYYY-MM]",
	Short: "Print the study calendar of a month",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCalendar,
}

func init() {
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	now := a.Zone.Now()
	year, month := now.Year(), now.Month()
	if len(args) == 1 {
		t, err := time.Parse("2006-01", args[0])
		if err != nil {
			return fmt.Errorf("expected YYYY-MM, got %q", args[0])
		}
		year, month = t.Year(), t.Month()
	}

	days, err := a.Services.Calendar.GetMonth(context.Background(), a.UserID(), year, month)
	if err != nil {
		return err
	}
	fmt.Print(renderMonth(year, month, days))
	return nil
}

func statusMark(s calendar.Status) string {
	switch s {
	case calendar.StatusCompleted:
		return "*"
	case calendar.StatusPartial:
		return "+"
	default:
		return " "
	}
}

// renderMonth lays the days out Sunday-first, one week per line
func renderMonth(year int, month time.Month, days []calendar.Day) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s %d\n\n", month, year)
	b.WriteString("   Sun  Mon  Tue  Wed  Thu  Fri  Sat\n")

	if len(days) > 0 {
		b.WriteString("  ")
		b.WriteString(strings.Repeat("     ", int(days[0].Weekday)))
	}
	for _, d := range days {
		if d.Weekday == time.Sunday && d.Day != 1 {
			b.WriteString("\n  ")
		}
		fmt.Fprintf(&b, " %2d%s ", d.Day, statusMark(d.Status))
	}

	s := calendar.Summary(days)
	fmt.Fprintf(&b, "\n\n  * all sessions done   + some sessions done\n")
	fmt.Fprintf(&b, "  Studied %d days, completed %d, %d sessions, streak %d\n\n",
		s.StudiedDays, s.CompletedDays, s.SessionsCompleted, s.Streak)
	return b.String()
}
