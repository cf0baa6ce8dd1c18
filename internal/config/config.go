// Package config loads op settings from a yaml file, OP_ environment
// variables and defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. OP_DATABASE
const EnvPrefix = "OP"

// Config represents the application configuration
type Config struct {
	Database string         `mapstructure:"database" yaml:"database"`
	Socket   string         `mapstructure:"socket" yaml:"socket"`
	User     string         `mapstructure:"user" yaml:"user"` // login the CLI acts as
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Daemon   DaemonConfig   `mapstructure:"daemon" yaml:"daemon"`
	Webhooks WebhooksConfig `mapstructure:"webhooks" yaml:"webhooks"`
	Theme    Theme          `mapstructure:"theme" yaml:"theme"`

	path string
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
	File  string `mapstructure:"file" yaml:"file"`   // empty logs to stderr
}

// DaemonConfig controls the event daemon
type DaemonConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"` // empty disables /metrics
}

// WebhooksConfig tunes webhook deliveries
type WebhooksConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Rate    float64       `mapstructure:"rate" yaml:"rate"` // per second per webhook, 0 = unlimited
	Burst   int           `mapstructure:"burst" yaml:"burst"`
}

// Dir returns the op data directory, honouring OP_HOME
func Dir() string {
	if dir := os.Getenv("OP_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".op"
	}
	return filepath.Join(home, ".op")
}

// DefaultPath returns the config file location
func DefaultPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "op", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "op", "config.yaml")
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	dir := Dir()
	return &Config{
		Database: filepath.Join(dir, "op.db"),
		Socket:   filepath.Join(dir, "op.sock"),
		User:     "admin",
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "logs", "op.log"),
		},
		Webhooks: WebhooksConfig{
			Timeout: 10 * time.Second,
			Rate:    5,
			Burst:   10,
		},
		Theme: *Preset("default"),
	}
}

// Load reads path (DefaultPath() when empty). A missing file yields
// the defaults; OP_ environment variables override both, e.g.
// OP_DATABASE or OP_WEBHOOKS_TIMEOUT.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	defaults := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database", defaults.Database)
	v.SetDefault("socket", defaults.Socket)
	v.SetDefault("user", defaults.User)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("daemon.metrics_addr", defaults.Daemon.MetricsAddr)
	v.SetDefault("webhooks.timeout", defaults.Webhooks.Timeout)
	v.SetDefault("webhooks.rate", defaults.Webhooks.Rate)
	v.SetDefault("webhooks.burst", defaults.Webhooks.Burst)
	v.SetDefault("theme.preset", defaults.Theme.Preset)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Theme.ApplyDefaults()
	cfg.path = path
	return cfg, nil
}

// Path returns the file the config was loaded from
func (c *Config) Path() string { return c.path }

// Save writes the config back to the file it was loaded from, or to
// DefaultPath() for a config built in code
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Set changes one setting by its dotted key, as used by `op config set`
func (c *Config) Set(key, value string) error {
	switch key {
	case "database":
		c.Database = value
	case "socket":
		c.Socket = value
	case "user":
		c.User = value
	case "log.level":
		c.Log.Level = value
	case "log.file":
		c.Log.File = value
	case "daemon.metrics_addr":
		c.Daemon.MetricsAddr = value
	case "webhooks.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		c.Webhooks.Timeout = d
	case "webhooks.rate":
		r, err := strconv.ParseFloat(value, 64)
		if err != nil || r < 0 {
			return fmt.Errorf("invalid rate %q: must be a non-negative number", value)
		}
		c.Webhooks.Rate = r
	case "webhooks.burst":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid burst %q: must be a positive integer", value)
		}
		c.Webhooks.Burst = n
	case "theme.preset":
		if _, ok := presets[value]; !ok {
			return fmt.Errorf("unknown theme preset %q", value)
		}
		c.Theme = *Preset(value)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
