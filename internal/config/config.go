// Package config loads daemon settings from file, environment, and defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all usagemon settings.
type Config struct {
	LogDirectory         string `mapstructure:"log_directory"`
	IdleThresholdMinutes int    `mapstructure:"idle_threshold_minutes"`
	CheckIntervalSeconds int    `mapstructure:"check_interval_seconds"`
	PollIntervalMs       int    `mapstructure:"poll_interval_ms"`
}

// IdleThreshold returns the idle threshold as a duration.
func (c *Config) IdleThreshold() time.Duration {
	return time.Duration(c.IdleThresholdMinutes) * time.Minute
}

// CheckInterval returns the idle recheck period as a duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// PollInterval returns the foreground poll period as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// DefaultLogDirectory is where activity CSVs land absent configuration.
func DefaultLogDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "usagemon-logs"
	}
	return filepath.Join(home, ".local", "share", "usagemon")
}

// Load reads configuration from configPath, or from the standard
// locations when it is empty. Environment variables with the USAGEMON_
// prefix override file values. A missing config file is fine; defaults
// apply. Out-of-range values are clamped with a warning rather than
// rejected.
func Load(configPath string, logger *zap.Logger) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/usagemon")
		v.AddConfigPath("/etc/usagemon/")
	}

	v.SetEnvPrefix("USAGEMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_directory", DefaultLogDirectory())
	v.SetDefault("idle_threshold_minutes", 5)
	v.SetDefault("check_interval_seconds", 10)
	v.SetDefault("poll_interval_ms", 500)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Info("config file not found, using defaults")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.IdleThresholdMinutes < 1 {
		logger.Warn("idle_threshold_minutes too low, clamping to 1",
			zap.Int("value", cfg.IdleThresholdMinutes))
		cfg.IdleThresholdMinutes = 1
	}
	if cfg.CheckIntervalSeconds < 1 {
		logger.Warn("check_interval_seconds too low, clamping to 1",
			zap.Int("value", cfg.CheckIntervalSeconds))
		cfg.CheckIntervalSeconds = 1
	}
	if cfg.PollIntervalMs < 100 {
		logger.Warn("poll_interval_ms too low, clamping to 100",
			zap.Int("value", cfg.PollIntervalMs))
		cfg.PollIntervalMs = 100
	}

	return &cfg, nil
}
