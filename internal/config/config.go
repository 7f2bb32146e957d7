package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	HeadsetControl  HeadsetControlConfig `yaml:"headsetcontrol"`
	Poll            PollConfig           `yaml:"poll"`
	Reconciler      ReconcilerConfig     `yaml:"reconciler"`
	Settings        SettingsConfig       `yaml:"settings"`
	Icons           IconsConfig          `yaml:"icons"`
	Tray            TrayConfig           `yaml:"tray"`
	Notifications   NotificationsConfig  `yaml:"notifications"`
	Database        DatabaseConfig       `yaml:"database"`
	Ledger          LedgerConfig         `yaml:"ledger"`
	EventBus        EventBusConfig       `yaml:"eventbus"`
	Hooks           HooksConfig          `yaml:"hooks"`
	Status          StatusConfig         `yaml:"status"`
	Log             LogConfig            `yaml:"log"`
	Autostart       AutostartConfig      `yaml:"autostart"`
	Intents         IntentsConfig        `yaml:"intents"`
	ShutdownTimeout Duration             `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// HeadsetControlConfig describes how the external device-control tool is invoked
type HeadsetControlConfig struct {
	Path         string   `yaml:"path"`
	Timeout      Duration `yaml:"timeout"`        // 0 = wait for the tool indefinitely
	RateLimitRPS float64  `yaml:"rate_limit_rps"` // Max command spawns per second (default: 2)
}

// PollConfig contains telemetry polling settings
type PollConfig struct {
	Interval Duration `yaml:"interval"`
}

// ReconcilerConfig contains threshold reconciliation settings
type ReconcilerConfig struct {
	HysteresisBand *int `yaml:"hysteresis_band"` // nil = default band of 5
}

// SettingsConfig points to the user settings file (JSON)
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// IconsConfig contains tray icon lookup settings
type IconsConfig struct {
	Dir string `yaml:"dir"`
}

// TrayConfig contains system tray settings
type TrayConfig struct {
	Enabled *bool `yaml:"enabled"` // nil = enabled
}

// IsEnabled returns whether the tray icon should be shown (default: true)
func (c *TrayConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// NotificationsConfig contains desktop notification settings
type NotificationsConfig struct {
	Enabled  *bool    `yaml:"enabled"`  // nil = enabled
	Duration Duration `yaml:"duration"` // Logged only, beeep has no display duration (default 5s)
	Icon     string   `yaml:"icon"`     // Icon path passed to the notification daemon
}

// IsEnabled returns whether desktop notifications are sent (default: true)
func (c *NotificationsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig contains action ledger settings
type LedgerConfig struct {
	Enabled           *bool    `yaml:"enabled"`            // nil = enabled
	RetentionPeriod   Duration `yaml:"retention_period"`   // How long to keep entries (default: 720h)
	RetentionInterval Duration `yaml:"retention_interval"` // How often to run cleanup (default: 24h)
}

// IsEnabled returns whether actions are recorded in the ledger (default: true)
func (c *LedgerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 2)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 64)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 2
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 64
	}
	return c.QueueSize
}

// HooksConfig contains the optional Lua hook script
type HooksConfig struct {
	Script string `yaml:"script"` // Empty = no hooks
}

// StatusConfig contains the local status/control HTTP server settings
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// GetHost returns host with default
func (c *StatusConfig) GetHost() string {
	if c.Host == "" {
		return "127.0.0.1"
	}
	return c.Host
}

// GetPort returns port with default
func (c *StatusConfig) GetPort() int {
	if c.Port == 0 {
		return 9191
	}
	return c.Port
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// AutostartConfig contains login autostart settings
type AutostartConfig struct {
	Dir string `yaml:"dir"` // Empty = platform default (XDG autostart dir or Startup folder)
}

// IntentsConfig contains user intent handling settings
type IntentsConfig struct {
	Debounce Duration `yaml:"debounce"` // Quiet period for slider-like intents (default: 250ms)
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// GetShutdownTimeout returns the shutdown timeout as time.Duration
func (c *Config) GetShutdownTimeout() time.Duration {
	return c.ShutdownTimeout.Duration()
}

// Load reads and parses the configuration file.
// A missing file is not an error: defaults are returned instead.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// run with defaults
	case err != nil:
		return nil, err
	default:
		// Expand environment variables
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// Device-control tool defaults
	if cfg.HeadsetControl.Path == "" {
		cfg.HeadsetControl.Path = "headsetcontrol"
	}
	if cfg.HeadsetControl.RateLimitRPS == 0 {
		cfg.HeadsetControl.RateLimitRPS = 2.0
	}
	// Timeout defaults to 0 (wait forever), no need to set

	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = Duration(10 * time.Second)
	}

	configDir := userConfigDir()
	if cfg.Settings.Path == "" {
		cfg.Settings.Path = filepath.Join(configDir, "settings.json")
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(configDir, "headsetd.sqlite")
	}
	if cfg.Icons.Dir == "" {
		cfg.Icons.Dir = "icons"
	}

	if cfg.Notifications.Duration == 0 {
		cfg.Notifications.Duration = Duration(5 * time.Second)
	}

	// Ledger defaults
	if cfg.Ledger.RetentionPeriod == 0 {
		cfg.Ledger.RetentionPeriod = Duration(30 * 24 * time.Hour)
	}
	if cfg.Ledger.RetentionInterval == 0 {
		cfg.Ledger.RetentionInterval = Duration(24 * time.Hour)
	}

	if cfg.Intents.Debounce == 0 {
		cfg.Intents.Debounce = Duration(250 * time.Millisecond)
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// userConfigDir returns the per-user directory holding settings and the database
func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "headsetd")
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

// ExpandEnvString expands a single string with environment variables
func ExpandEnvString(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return expandEnvVars(s)
	}
	return s
}
