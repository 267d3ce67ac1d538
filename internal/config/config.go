// Package config loads teahouse settings from YAML.
//
// Values may reference environment variables as ${VAR_NAME}. Missing
// sections fall back to defaults:
//
//	database:
//	  path: "data/teahouse/teahouse.db"
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	economy:
//	  sign_in_reward: 10
//	schedule:
//	  daily_reset: "0 0 * * *"
//	  weekly_reset: "0 0 * * 1"
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"teahouse/internal/storage"
)

// EnvConfigPath names the config file when no path is given explicitly.
const EnvConfigPath = "TEAHOUSE_CONFIG"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Economy  EconomyConfig  `yaml:"economy"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type EconomyConfig struct {
	SignInReward float64 `yaml:"sign_in_reward"`
}

// ScheduleConfig holds cron expressions for task resets. Empty disables a job.
type ScheduleConfig struct {
	DailyReset  string `yaml:"daily_reset"`
	WeeklyReset string `yaml:"weekly_reset"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: storage.DefaultDBPath()},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Economy:  EconomyConfig{SignInReward: 10},
		Schedule: ScheduleConfig{DailyReset: "0 0 * * *", WeeklyReset: "0 0 * * 1"},
	}
}

// Load reads the file at path over the defaults. An empty path uses
// $TEAHOUSE_CONFIG, and with neither set the defaults are returned as is.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = storage.DefaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or "" when unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if c.Economy.SignInReward < 0 {
		errs = append(errs, fmt.Errorf("economy.sign_in_reward must not be negative"))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", s)
	}
}

// NewLogger builds the process logger described by the logging section.
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
