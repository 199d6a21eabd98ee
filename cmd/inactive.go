package cmd

import (
	"context"
	"fmt"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"

	"github.com/spf13/cobra"
)

var inactiveCmd = &cobra.Command{
	Use:   "inactive",
	Short: "List users on the inactivity tracker",
	RunE:  runInactive,
}

func init() {
	rootCmd.AddCommand(inactiveCmd)
}

func runInactive(_ *cobra.Command, _ []string) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := rollup.NewQuery(db).Inactive(context.Background())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("INACTIVE USERS"))
	fmt.Println()

	if len(recs) == 0 {
		fmt.Println("  Nobody is on the inactivity tracker.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		lastSeen := cli.FormatDate(r.LastActivityDate)
		if r.LastActivityDate == "1970-01-01" {
			lastSeen = cli.Muted("never")
		}
		notified := "-"
		if r.NotificationCount > 0 {
			notified = fmt.Sprintf("%d (%s)", r.NotificationCount, cli.FormatDate(r.LastNotificationDate))
		}
		rows = append(rows, []string{
			cli.TruncateUser(r.UserKey, 32),
			lastSeen,
			cli.FormatDaysSince(r.DaysSinceLastActivity),
			notified,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"User", "Last Active", "Idle", "Reminders"},
		Rows:    rows,
	}))
	return nil
}
