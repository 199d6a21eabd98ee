package cmd

import (
	"context"
	"fmt"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"

	"github.com/spf13/cobra"
)

var (
	flagBoardApp    string
	flagBoardPeriod string
	flagBoardStart  string
	flagBoardLimit  int
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank users by active days for one app",
	RunE:  runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().StringVarP(&flagBoardApp, "app", "a", "All", "App to rank by")
	leaderboardCmd.Flags().StringVarP(&flagBoardPeriod, "period", "p", "alltime", "Period: weekly, monthly, alltime")
	leaderboardCmd.Flags().StringVarP(&flagBoardStart, "start", "s", "", "Period start date (default: latest ingested)")
	leaderboardCmd.Flags().IntVarP(&flagBoardLimit, "limit", "l", 10, "Max users to show")
	rootCmd.AddCommand(leaderboardCmd)
}

func runLeaderboard(_ *cobra.Command, _ []string) error {
	app, err := model.ParseApp(flagBoardApp)
	if err != nil {
		return err
	}
	period, err := model.ParsePeriod(flagBoardPeriod)
	if err != nil {
		return err
	}

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	query := rollup.NewQuery(db)

	start := flagBoardStart
	if period != model.PeriodAllTime && start == "" {
		start, err = query.StartDate(ctx, period)
		if err != nil {
			return err
		}
		if start == "" {
			fmt.Println("  No data ingested yet.")
			return nil
		}
	}

	board, err := query.Leaderboard(ctx, app, period, start, flagBoardLimit)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("LEADERBOARD — %s (%s)", app, period)
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	if len(board) == 0 {
		fmt.Println("  No activity recorded for this bucket.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(board))
	for i, e := range board {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			cli.TruncateUser(e.UserKey, 32),
			cli.FormatNumber(int64(e.ActivityCount)),
			cli.FormatNumber(int64(e.Interactions)),
			cli.FormatStreak(e.CurrentStreak),
			cli.FormatStreak(e.BestStreak),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"#", "User", "Active Days", "Interactions", "Streak", "Best"},
		Rows:    rows,
	}))
	return nil
}
