package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/ingest"
	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/queue"

	"github.com/spf13/cobra"
)

var flagRemindDay string

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Enqueue reminders for eligible inactive users",
	Long: "Walk the inactivity tracker and enqueue a reminder for every user past\n" +
		"the configured interval and under the reminder cap. The configured\n" +
		"service account is never enqueued.",
	RunE: runRemind,
}

var remindPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show reminders queued for a day",
	RunE:  runRemindPending,
}

func init() {
	remindPendingCmd.Flags().StringVar(&flagRemindDay, "day", "", "Queue day to inspect (default: today)")
	remindCmd.AddCommand(remindPendingCmd)
	rootCmd.AddCommand(remindCmd)
}

func runRemind(_ *cobra.Command, _ []string) error {
	db, cfg, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	orch := ingest.New(db, queue.NewOutbox(db, nil), ingestConfig(cfg))
	n, err := orch.EnqueueReminders(context.Background())
	if err != nil {
		return err
	}

	if n == 0 {
		fmt.Println("  No users are due a reminder.")
		return nil
	}
	fmt.Printf("  Enqueued %d reminders — see `copusage remind pending`\n", n)
	return nil
}

func runRemindPending(_ *cobra.Command, _ []string) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	day := flagRemindDay
	if day == "" {
		day = time.Now().Format(model.DateFormat)
	}

	items, err := queue.NewOutbox(db, nil).Pending(context.Background(), day)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PENDING REMINDERS " + day))
	fmt.Println()

	if len(items) == 0 {
		fmt.Println("  Queue is empty for this day.")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			cli.TruncateUser(it.UserKey, 32),
			cli.FormatDate(it.LastActivityDate),
			cli.FormatDaysSince(it.DaysSinceLastActivity),
			fmt.Sprintf("%d", it.NotificationCount),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"User", "Last Active", "Idle", "Count"},
		Rows:    rows,
	}))
	return nil
}
