package cmd

import (
	"context"
	"fmt"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Overview of ingested data and top users",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	query := rollup.NewQuery(db)

	fmt.Println()
	fmt.Println(cli.RenderTitle("COPILOT USAGE SUMMARY"))
	fmt.Println()

	// Refresh markers show how far ingestion has progressed per period.
	lastDaily, err := query.StartDate(ctx, model.PeriodDaily)
	if err != nil {
		return err
	}
	if lastDaily == "" {
		fmt.Println("  No data ingested yet. Run `copusage ingest` first.")
		fmt.Println()
		return nil
	}

	markerRows := [][]string{}
	for _, p := range model.MarkerPeriods {
		start, err := query.StartDate(ctx, p)
		if err != nil {
			return err
		}
		if start == "" {
			start = "-"
		}
		markerRows = append(markerRows, []string{p.String(), cli.FormatDate(start)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Ingested Through",
		Headers: []string{"Period", "Start"},
		Rows:    markerRows,
	}))

	// Top users by all-up activity across all time.
	board, err := query.Leaderboard(ctx, model.AppAll, model.PeriodAllTime, "", 0)
	if err != nil {
		return err
	}
	if len(board) > 0 {
		top := board
		if len(top) > 5 {
			top = top[:5]
		}
		rows := make([][]string, 0, len(top))
		for _, e := range top {
			rows = append(rows, []string{
				cli.TruncateUser(e.UserKey, 32),
				cli.FormatNumber(int64(e.ActivityCount)),
				cli.FormatStreak(e.CurrentStreak),
				cli.FormatStreak(e.BestStreak),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Top Users (all time)",
			Headers: []string{"User", "Active Days", "Streak", "Best"},
			Rows:    rows,
		}))

		// Activity spread across the whole population, busiest first.
		counts := make([]float64, 0, len(board))
		onStreak := 0
		for _, e := range board {
			counts = append(counts, float64(e.ActivityCount))
			if e.CurrentStreak > 0 {
				onStreak++
			}
		}
		fmt.Printf("  Activity spread: %s\n", cli.RenderSparkline(counts))
		fmt.Printf("  On a streak:     %s of active users\n\n",
			cli.FormatPercent(float64(onStreak)/float64(len(board))))
	}

	inactive, err := query.Inactive(ctx)
	if err != nil {
		return err
	}
	if len(inactive) > 0 {
		fmt.Printf("  %s\n\n", cli.Warn(fmt.Sprintf("%d users on the inactivity tracker — see `copusage inactive`", len(inactive))))
	}

	return nil
}
