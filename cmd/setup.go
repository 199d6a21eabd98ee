package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/groveale/copilot-usage-scraper/internal/config"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to copusage!")
	fmt.Println()

	// 1. Report source
	fmt.Println("  1. Report API base URL")
	fmt.Println("     Where the daily Copilot usage report is fetched from.")
	if cfg.Source.BaseURL != "" {
		fmt.Printf("     Current: %s\n", cfg.Source.BaseURL)
	}
	fmt.Print("     > ")
	baseURL, _ := reader.ReadString('\n')
	baseURL = strings.TrimSpace(baseURL)
	if baseURL != "" {
		cfg.Source.BaseURL = baseURL
	}
	fmt.Println()

	// 2. Bearer token
	fmt.Println("  2. Report API bearer token")
	fmt.Println("     Skip to use the COPUSAGE_SOURCE_TOKEN environment variable.")
	existing := config.GetSourceToken(cfg)
	if existing != "" {
		fmt.Printf("     Current: %s\n", maskToken(existing))
	}
	fmt.Print("     > ")
	token, _ := reader.ReadString('\n')
	token = strings.TrimSpace(token)
	if token != "" {
		cfg.Source.Token = token
	}
	fmt.Println()

	// 3. Inactivity threshold
	fmt.Printf("  3. Inactivity threshold in days [%d]\n", cfg.Reminders.InactivityDays)
	fmt.Println("     Users idle at least this long go on the reminder tracker.")
	fmt.Print("     > ")
	daysStr, _ := reader.ReadString('\n')
	if n, err := strconv.Atoi(strings.TrimSpace(daysStr)); err == nil && n > 0 {
		cfg.Reminders.InactivityDays = n
	}
	fmt.Println()

	// 4. Daemon ingest hour
	fmt.Printf("  4. Daily ingest hour, 0-23 [%d]\n", cfg.Daemon.IngestHour)
	fmt.Print("     > ")
	hourStr, _ := reader.ReadString('\n')
	if n, err := strconv.Atoi(strings.TrimSpace(hourStr)); err == nil && n >= 0 && n <= 23 {
		cfg.Daemon.IngestHour = n
	}
	fmt.Println()

	// 5. Theme
	fmt.Println("  5. Color theme")
	fmt.Println("     (1) Flexoki Dark [default]")
	fmt.Println("     (2) Terminal (ANSI 16)")
	fmt.Print("     > ")
	themeChoice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(themeChoice) {
	case "2":
		cfg.Appearance.Theme = "terminal"
	default:
		cfg.Appearance.Theme = "flexoki-dark"
	}

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `copusage setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func maskToken(token string) string {
	if len(token) > 16 {
		return token[:8] + "..." + token[len(token)-4:]
	}
	if len(token) > 4 {
		return token[:4] + "..."
	}
	return "****"
}
