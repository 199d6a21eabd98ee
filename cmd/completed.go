package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"

	"github.com/spf13/cobra"
)

var (
	flagCompletedApps      []string
	flagCompletedPeriod    string
	flagCompletedStart     string
	flagCompletedThreshold int
)

var completedCmd = &cobra.Command{
	Use:   "completed",
	Short: "List users who completed activity in every given app",
	Long: "List users active in every one of the given apps for a period bucket:\n" +
		"used on the exact date (daily), or at least --threshold active days\n" +
		"(weekly, monthly, alltime).",
	RunE: runCompleted,
}

func init() {
	completedCmd.Flags().StringSliceVarP(&flagCompletedApps, "apps", "a", []string{"All"}, "Apps that must all be used (e.g. Teams,Word)")
	completedCmd.Flags().StringVarP(&flagCompletedPeriod, "period", "p", "alltime", "Period: daily, weekly, monthly, alltime")
	completedCmd.Flags().StringVarP(&flagCompletedStart, "start", "s", "", "Period start date (default: latest ingested)")
	completedCmd.Flags().IntVarP(&flagCompletedThreshold, "threshold", "t", 1, "Minimum active days per app")
	rootCmd.AddCommand(completedCmd)
}

func runCompleted(_ *cobra.Command, _ []string) error {
	apps, err := model.ParseApps(flagCompletedApps)
	if err != nil {
		return err
	}
	period, err := model.ParsePeriod(flagCompletedPeriod)
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

	start := flagCompletedStart
	status := rollup.StartDateActive
	if period != model.PeriodAllTime {
		current, err := query.StartDate(ctx, period)
		if err != nil {
			return err
		}
		if current == "" {
			fmt.Println("  No data ingested yet.")
			return nil
		}
		if start == "" {
			start = current
		}
		status = rollup.StartDateStatus(start, current)
	}

	var users []string
	if status == rollup.StartDateActive {
		users, err = query.CompletedActivity(ctx, apps, flagCompletedThreshold, period, start)
		if err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("COMPLETED ACTIVITY"))
	fmt.Println()
	fmt.Printf("  Apps: %s  Period: %s", strings.Join(flagCompletedApps, ", "), period)
	if period != model.PeriodAllTime {
		fmt.Printf("  Start: %s (%s)", start, status)
	}
	fmt.Println()
	fmt.Println()

	if status != rollup.StartDateActive {
		fmt.Printf("  %s\n\n", cli.Muted("Requested period is not the active bucket — no users to report."))
		return nil
	}
	if len(users) == 0 {
		fmt.Println("  No users matched.")
		fmt.Println()
		return nil
	}

	for _, u := range users {
		fmt.Printf("  %s\n", u)
	}
	fmt.Printf("\n  %d users\n\n", len(users))
	return nil
}
