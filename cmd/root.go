package cmd

import (
	"fmt"
	"os"

	"github.com/groveale/copilot-usage-scraper/internal/config"
	"github.com/groveale/copilot-usage-scraper/internal/ingest"
	"github.com/groveale/copilot-usage-scraper/internal/rollup"
	"github.com/groveale/copilot-usage-scraper/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDBPath string
	flagQuiet  bool
)

var rootCmd = &cobra.Command{
	Use:   "copusage",
	Short: "Copilot Usage Metrics CLI",
	Long:  "Track Microsoft 365 Copilot adoption: daily usage, streaks, leaderboards, and inactivity reminders.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the usage database (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// openDB loads the config and opens the usage database. The --db flag wins
// over the configured path.
func openDB() (*store.DB, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cfg, err
	}

	path := config.DBPath(cfg)
	if flagDBPath != "" {
		path = flagDBPath
	}

	db, err := store.Open(path)
	if err != nil {
		return nil, cfg, fmt.Errorf("opening database: %w", err)
	}
	return db, cfg, nil
}

// ingestConfig maps the user-facing config onto the orchestrator settings.
func ingestConfig(cfg config.Config) ingest.Config {
	return ingest.Config{
		Tracker: rollup.TrackerConfig{
			ThresholdDays:        cfg.Reminders.InactivityDays,
			ReminderIntervalDays: cfg.Reminders.IntervalDays,
			ReminderMaxCount:     cfg.Reminders.MaxCount,
		},
		ServiceAccount: cfg.Reminders.ServiceAccount,
	}
}
