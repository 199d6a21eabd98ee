package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all copusage configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Source     SourceConfig     `toml:"source"`
	Reminders  RemindersConfig  `toml:"reminders"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	// DBPath overrides the default database location.
	DBPath string `toml:"db_path,omitempty"`
}

// SourceConfig holds the usage-report source settings.
type SourceConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	Tenant  string `toml:"tenant,omitempty"`
	Token   string `toml:"token,omitempty"`
}

// RemindersConfig holds inactivity reminder thresholds.
type RemindersConfig struct {
	// InactivityDays is how many days without activity put a user on the
	// inactivity tracker.
	InactivityDays int `toml:"inactivity_days"`
	// IntervalDays is the minimum gap between reminders to one user.
	IntervalDays int `toml:"interval_days"`
	// MaxCount caps reminders per inactivity stretch; zero means no cap.
	MaxCount int `toml:"max_count"`
	// ServiceAccount is a user key that never receives reminders.
	ServiceAccount string `toml:"service_account,omitempty"`
}

// DaemonConfig holds the background service settings.
type DaemonConfig struct {
	// IngestHour is the local hour (0-23) the daily batch runs at.
	IngestHour int    `toml:"ingest_hour"`
	ListenAddr string `toml:"listen_addr,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Reminders: RemindersConfig{
			InactivityDays: 30,
			IntervalDays:   7,
			MaxCount:       3,
		},
		Daemon: DaemonConfig{
			IngestHour: 3,
			ListenAddr: "127.0.0.1:7878",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "copusage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "copusage")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "copusage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "copusage")
}

// DBPath returns the database path: the configured override, or the default
// location under the data dir.
func DBPath(cfg Config) string {
	if cfg.General.DBPath != "" {
		return cfg.General.DBPath
	}
	return filepath.Join(DataDir(), "usage.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetSourceToken returns the report API token from env var or config, in
// that order.
func GetSourceToken(cfg Config) string {
	if tok := os.Getenv("COPUSAGE_SOURCE_TOKEN"); tok != "" {
		return tok
	}
	return cfg.Source.Token
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
