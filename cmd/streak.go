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
	flagStreakApps []string
	flagStreakMin  int
)

var streaksCmd = &cobra.Command{
	Use:   "streaks",
	Short: "List users holding a current daily usage streak",
	RunE:  runStreaks,
}

func init() {
	streaksCmd.Flags().StringSliceVarP(&flagStreakApps, "apps", "a", []string{"All"}, "Apps the streak must cover (e.g. Teams,Word)")
	streaksCmd.Flags().IntVarP(&flagStreakMin, "min", "m", 1, "Minimum current streak in days")
	rootCmd.AddCommand(streaksCmd)
}

func runStreaks(_ *cobra.Command, _ []string) error {
	apps, err := model.ParseApps(flagStreakApps)
	if err != nil {
		return err
	}

	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := rollup.NewQuery(db).UsersWithStreak(context.Background(), apps, flagStreakMin)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ACTIVE STREAKS"))
	fmt.Println()
	fmt.Printf("  Apps: %s  Min: %s\n\n", strings.Join(flagStreakApps, ", "), cli.FormatStreak(flagStreakMin))

	if len(users) == 0 {
		fmt.Println("  No users are on a streak.")
		fmt.Println()
		return nil
	}

	for _, u := range users {
		fmt.Printf("  %s\n", u)
	}
	fmt.Printf("\n  %d users\n\n", len(users))
	return nil
}
