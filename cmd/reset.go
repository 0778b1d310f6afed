package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/studyapp/internal/stats"
)

var flagResetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete study progress",
}

var resetTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Delete today's completed sessions and today's stats rows",
	RunE:  runResetToday,
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete all progress, stats, sessions and expressions",
	RunE:  runResetAll,
}

func init() {
	resetAllCmd.Flags().BoolVarP(&flagResetYes, "yes", "y", false, "Skip the confirmation prompt")
	resetCmd.AddCommand(resetTodayCmd, resetAllCmd)
	rootCmd.AddCommand(resetCmd)
}

func runResetToday(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := context.Background()
	today := a.Zone.Today()

	rows, err := a.Repos.SessionProgress.ListCompleted(ctx, a.UserID(), "")
	if err != nil {
		return err
	}
	deleted := 0
	for _, row := range rows {
		if !stats.CompletedOn(row, a.Zone, today) {
			continue
		}
		if err := a.Repos.SessionProgress.Delete(ctx, row.ID); err != nil {
			return err
		}
		deleted++
	}

	if err := a.Repos.DailyStats.DeleteByDay(ctx, a.UserID(), today); err != nil {
		return err
	}

	a.Log.Info("today's progress reset", "study_date", today, "sessions", deleted)
	fmt.Printf("  Deleted %d completed sessions and the stats rows of %s\n", deleted, today)
	return nil
}

func runResetAll(_ *cobra.Command, _ []string) error {
	if !flagResetYes {
		fmt.Print("  This deletes every session, expression, progress fact and stats row.\n  Type 'yes' to continue: ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Println("  Aborted.")
			return nil
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx := context.Background()
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"expression progress", a.Repos.ExpressionProgress.DeleteAll},
		{"session progress", a.Repos.SessionProgress.DeleteAll},
		{"daily stats", a.Repos.DailyStats.DeleteAll},
		{"expressions", a.Repos.Expression.DeleteAll},
		{"sessions", a.Repos.Session.DeleteAll},
		{"category totals", a.Repos.Category.ResetAllTotals},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("reset %s: %w", step.name, err)
		}
		fmt.Printf("  Cleared %s\n", step.name)
	}
	a.Log.Info("all content reset")
	return nil
}
