package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/studyapp/internal/localdate"
	"github.com/example/studyapp/internal/stats"
)

var flagStatsDay string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect or rebuild the daily study statistics",
}

var statsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare stored daily stats with the completion facts",
	RunE:  runStatsCheck,
}

var statsReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute the daily stats of every category for a day",
	RunE:  runStatsReconcile,
}

func init() {
	statsCmd.PersistentFlags().StringVar(&flagStatsDay, "day", "", "Calendar day YYYY-MM-DD (default today in the study timezone)")
	statsCmd.AddCommand(statsCheckCmd, statsReconcileCmd)
	rootCmd.AddCommand(statsCmd)
}

func statsDay(zone *localdate.Zone) (string, error) {
	if flagStatsDay == "" {
		return zone.Today(), nil
	}
	if _, err := localdate.ParseDay(flagStatsDay); err != nil {
		return "", err
	}
	return flagStatsDay, nil
}

func runStatsCheck(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	day, err := statsDay(a.Zone)
	if err != nil {
		return err
	}
	ctx := context.Background()

	categories, err := a.Repos.Category.GetAll(ctx)
	if err != nil {
		return err
	}
	rows, err := a.Repos.DailyStats.ListRange(ctx, a.UserID(), day, day)
	if err != nil {
		return err
	}
	stored := make(map[string][2]int, len(rows))
	for _, r := range rows {
		stored[r.CategoryID] = [2]int{r.SessionsCompleted, r.TotalSessions}
	}

	fmt.Printf("  Daily stats for %s (%s)\n\n", day, a.Zone.Location())
	fmt.Printf("  %-24s %12s %12s  %s\n", "CATEGORY", "STORED", "LIVE", "")

	stale := 0
	for _, c := range categories {
		facts, err := a.Repos.SessionProgress.ListCompleted(ctx, a.UserID(), c.ID)
		if err != nil {
			return err
		}
		total, err := a.Repos.Session.CountByCategory(ctx, c.ID)
		if err != nil {
			return err
		}
		live := [2]int{stats.CountCompletedOn(facts, a.Zone, day), total}

		snapshot, ok := stored[c.ID]
		storedText := "-"
		if ok {
			storedText = fmt.Sprintf("%d/%d", snapshot[0], snapshot[1])
		}
		mark := ""
		if !ok || snapshot != live {
			mark = "stale"
			stale++
		}
		fmt.Printf("  %-24s %12s %12s  %s\n", c.Name, storedText, fmt.Sprintf("%d/%d", live[0], live[1]), mark)
	}

	fmt.Println()
	if stale > 0 {
		fmt.Printf("  %d categories out of date, run: studyapp stats reconcile --day %s\n", stale, day)
	} else {
		fmt.Println("  All categories up to date.")
	}
	return nil
}

func runStatsReconcile(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(a)

	day, err := statsDay(a.Zone)
	if err != nil {
		return err
	}

	rows, err := a.Services.Reconciler.ReconcileAll(context.Background(), a.UserID(), day)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("  %s  %-36s %d/%d\n", r.StudyDate, r.CategoryID, r.SessionsCompleted, r.TotalSessions)
	}
	fmt.Printf("\n  Reconciled %d categories for %s\n", len(rows), day)
	return nil
}
