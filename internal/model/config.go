package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StorageConfig locates the local task database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SchedulerConfig controls how often the recurring roller and the
// deadline notifier run.
type SchedulerConfig struct {
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// NotificationConfig holds the notification log limits.
type NotificationConfig struct {
	MaxEntries           int `mapstructure:"max_entries" yaml:"max_entries"`
	RetentionDays        int `mapstructure:"retention_days" yaml:"retention_days"`
	SuppressionWindowMin int `mapstructure:"suppression_window_min" yaml:"suppression_window_min"`
}

// SyncConfig holds settings for the remote sync mirror. The API key is
// kept in the system keyring, never in this file.
type SyncConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	URL         string `mapstructure:"url" yaml:"url"`
	IntervalSec int    `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// CalendarConfig holds settings for mirroring deadlines to Google Calendar.
type CalendarConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Name            string `mapstructure:"name" yaml:"name"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	TokenFile       string `mapstructure:"token_file" yaml:"token_file"`
}

// ServerConfig holds settings for `novatasks serve`.
type ServerConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	DBPath    string `mapstructure:"db_path" yaml:"db_path"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Issuer    string `mapstructure:"issuer" yaml:"issuer"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage       StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Scheduler     SchedulerConfig    `mapstructure:"scheduler" yaml:"scheduler"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Sync          SyncConfig         `mapstructure:"sync" yaml:"sync"`
	Calendar      CalendarConfig     `mapstructure:"calendar" yaml:"calendar"`
	Server        ServerConfig       `mapstructure:"server" yaml:"server"`
}

// TickInterval returns the scheduler period as a duration.
func (c *AppConfig) TickInterval() time.Duration {
	return seconds(c.Scheduler.IntervalSec, 60)
}

// SyncInterval returns the remote push period as a duration.
func (c *AppConfig) SyncInterval() time.Duration {
	return seconds(c.Sync.IntervalSec, 300)
}

// SuppressionWindow returns the deadline alert suppression window.
func (c *AppConfig) SuppressionWindow() time.Duration {
	if c.Notifications.SuppressionWindowMin <= 0 {
		return time.Hour
	}
	return time.Duration(c.Notifications.SuppressionWindowMin) * time.Minute
}

// Retention returns how long notifications are kept across restarts.
func (c *AppConfig) Retention() time.Duration {
	days := c.Notifications.RetentionDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// ConfigDir returns ~/.config/novatasks, falling back to the working
// directory when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "novatasks")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/novatasks/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Storage:   StorageConfig{Path: filepath.Join(dir, "tasks.db")},
		Scheduler: SchedulerConfig{IntervalSec: 60},
		Notifications: NotificationConfig{
			MaxEntries:           50,
			RetentionDays:        7,
			SuppressionWindowMin: 60,
		},
		Sync: SyncConfig{IntervalSec: 300},
		Calendar: CalendarConfig{
			Name:            "Tasks",
			CredentialsFile: filepath.Join(dir, "credentials.json"),
			TokenFile:       filepath.Join(dir, "token.json"),
		},
		Server: ServerConfig{
			Addr:   ":3000",
			DBPath: filepath.Join(dir, "sync.db"),
			Issuer: "novatasks",
		},
	}
}

func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("scheduler.interval_sec", cfg.Scheduler.IntervalSec)
	v.SetDefault("notifications.max_entries", cfg.Notifications.MaxEntries)
	v.SetDefault("notifications.retention_days", cfg.Notifications.RetentionDays)
	v.SetDefault("notifications.suppression_window_min", cfg.Notifications.SuppressionWindowMin)
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.url", "")
	v.SetDefault("sync.interval_sec", cfg.Sync.IntervalSec)
	v.SetDefault("calendar.enabled", false)
	v.SetDefault("calendar.name", cfg.Calendar.Name)
	v.SetDefault("calendar.credentials_file", cfg.Calendar.CredentialsFile)
	v.SetDefault("calendar.token_file", cfg.Calendar.TokenFile)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.db_path", cfg.Server.DBPath)
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.issuer", cfg.Server.Issuer)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with NOVATASKS_ override file values
// (e.g. NOVATASKS_SYNC_URL). If the file does not exist, defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("novatasks")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		_, missing := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !missing && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("scheduler", cfg.Scheduler)
	v.Set("notifications", cfg.Notifications)
	v.Set("sync", cfg.Sync)
	v.Set("calendar", cfg.Calendar)
	v.Set("server", cfg.Server)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
