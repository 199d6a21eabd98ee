package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/groveale/copilot-usage-scraper/internal/cli"
	"github.com/groveale/copilot-usage-scraper/internal/config"
	"github.com/groveale/copilot-usage-scraper/internal/ingest"
	"github.com/groveale/copilot-usage-scraper/internal/model"
	"github.com/groveale/copilot-usage-scraper/internal/queue"
	"github.com/groveale/copilot-usage-scraper/internal/report"

	"github.com/spf13/cobra"
)

var (
	flagIngestFile   string
	flagIngestRemind bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch the daily usage report and fold it into the rollups",
	Long: "Fetch the current daily usage report from the configured source (or load it\n" +
		"from a JSON file with --file) and apply it: daily snapshots, weekly/monthly/\n" +
		"all-time rollups, streaks, and the inactivity tracker. Re-running the same\n" +
		"report date is a no-op.",
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&flagIngestFile, "file", "f", "", "Load report rows from a JSON file instead of the API")
	ingestCmd.Flags().BoolVar(&flagIngestRemind, "remind", false, "Enqueue reminders for eligible inactive users after the batch")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, _ []string) error {
	db, cfg, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rows, err := fetchRows(ctx, cfg)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("  Report is empty, nothing to do.")
		return nil
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Processing %s report rows...\n", cli.FormatNumber(int64(len(rows))))
	}

	orch := ingest.New(db, queue.NewOutbox(db, nil), ingestConfig(cfg))
	result, err := orch.Run(ctx, rows)
	if err != nil {
		return err
	}

	printResult(result)

	if flagIngestRemind {
		n, err := orch.EnqueueReminders(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  Enqueued %d reminders\n\n", n)
	}

	return nil
}

// fetchRows loads the day's report from --file or from the configured source.
func fetchRows(ctx context.Context, cfg config.Config) ([]model.UsageRow, error) {
	if flagIngestFile != "" {
		return report.LoadFile(flagIngestFile)
	}

	token := config.GetSourceToken(cfg)
	client := report.NewClient(cfg.Source.BaseURL, report.StaticToken(token))
	if client == nil {
		return nil, errors.New("no report source configured — run `copusage setup` or pass --file")
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching daily report from %s...\n", cfg.Source.BaseURL)
	}
	rows, err := client.FetchDaily(ctx)
	if err != nil {
		if errors.Is(err, report.ErrUnauthorized) {
			return nil, errors.New("source token expired or invalid — run `copusage setup` to update it")
		}
		return nil, err
	}
	return rows, nil
}

func printResult(r ingest.Result) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("INGEST " + r.ReportDate))
	fmt.Println()

	rows := [][]string{
		{"Rows", cli.FormatNumber(int64(r.Rows))},
		{"Processed", cli.Active(cli.FormatNumber(int64(r.Processed)))},
		{"Snapshots created", cli.FormatNumber(int64(r.SnapshotsCreated))},
		{"Rollups written", cli.FormatNumber(int64(r.RecordsWritten))},
	}
	if r.Malformed > 0 {
		rows = append(rows, []string{"Malformed", cli.Warn(cli.FormatNumber(int64(r.Malformed)))})
	}
	if r.Conflicted > 0 {
		rows = append(rows, []string{"Conflicted", cli.Warn(cli.FormatNumber(int64(r.Conflicted)))})
	}
	if r.Failed > 0 {
		rows = append(rows, []string{"Failed", cli.Warn(cli.FormatNumber(int64(r.Failed)))})
	}
	if r.InactivityPurged > 0 {
		rows = append(rows, []string{"Inactivity purged", cli.FormatNumber(int64(r.InactivityPurged))})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Count"},
		Rows:    rows,
	}))

	if r.SnapshotsCreated == 0 && r.Processed > 0 {
		fmt.Printf("  %s\n\n", cli.Muted("Report date already ingested — no changes made."))
	}
}
