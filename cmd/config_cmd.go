// Package cmd implements the copusage CLI commands.
package cmd

import (
	"fmt"

	"github.com/groveale/copilot-usage-scraper/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Database: %s\n", config.DBPath(cfg))
	fmt.Println()

	fmt.Println("  [Source]")
	if cfg.Source.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.Source.BaseURL)
	} else {
		fmt.Println("    Base URL: not configured")
	}
	if cfg.Source.Tenant != "" {
		fmt.Printf("    Tenant:   %s\n", cfg.Source.Tenant)
	}
	token := config.GetSourceToken(cfg)
	if token != "" {
		fmt.Printf("    Token:    %s\n", maskToken(token))
	} else {
		fmt.Println("    Token:    not configured")
	}
	fmt.Println()

	fmt.Println("  [Reminders]")
	fmt.Printf("    Inactivity threshold: %d days\n", cfg.Reminders.InactivityDays)
	fmt.Printf("    Reminder interval:    %d days\n", cfg.Reminders.IntervalDays)
	if cfg.Reminders.MaxCount > 0 {
		fmt.Printf("    Reminder cap:         %d\n", cfg.Reminders.MaxCount)
	} else {
		fmt.Println("    Reminder cap:         none")
	}
	if cfg.Reminders.ServiceAccount != "" {
		fmt.Printf("    Service account:      %s\n", cfg.Reminders.ServiceAccount)
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Ingest hour:    %02d:00\n", cfg.Daemon.IngestHour)
	fmt.Printf("    Listen address: %s\n", cfg.Daemon.ListenAddr)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `copusage setup` to reconfigure.")
	return nil
}
