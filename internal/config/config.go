// Package config provides toolkit configuration loaded from a YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the toolkit configuration.
type Config struct {
	Logger   LoggerConfig   `yaml:"logger"`
	Cache    CacheConfig    `yaml:"cache"`
	Playback PlaybackConfig `yaml:"playback"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, pretty
}

// CacheConfig holds range cache configuration.
type CacheConfig struct {
	// MaxBytes is the byte budget of the range cache (default: 32 MiB).
	MaxBytes int64 `yaml:"max_bytes"`
}

// PlaybackConfig holds playback configuration.
type PlaybackConfig struct {
	// SkipInterval is the skip forward/back distance in seconds (default: 30).
	SkipInterval float64 `yaml:"skip_interval"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Logger:   LoggerConfig{Level: "info", Format: "pretty"},
		Cache:    CacheConfig{MaxBytes: 32 << 20},
		Playback: PlaybackConfig{SkipInterval: 30},
	}
}

// Load builds configuration with precedence:
// 1. Environment variables (highest priority).
// 2. YAML config file, if path is non-empty.
// 3. Default values (lowest priority).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //#nosec G304 -- config file path from user input is expected
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Logger.Level = getEnvValue("AUDIOBOOK_LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnvValue("AUDIOBOOK_LOG_FORMAT", cfg.Logger.Format)
	cfg.Cache.MaxBytes = getEnvInt64("AUDIOBOOK_CACHE_MAX_BYTES", cfg.Cache.MaxBytes)
	cfg.Playback.SkipInterval = getEnvFloat("AUDIOBOOK_SKIP_INTERVAL", cfg.Playback.SkipInterval)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are usable.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "pretty" {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Cache.MaxBytes <= 0 {
		return fmt.Errorf("cache max_bytes must be positive, got %d", c.Cache.MaxBytes)
	}

	if c.Playback.SkipInterval <= 0 {
		return fmt.Errorf("playback skip_interval must be positive, got %f", c.Playback.SkipInterval)
	}

	return nil
}

// getEnvValue returns the env var value if set, otherwise the fallback.
func getEnvValue(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt64 returns the env var parsed as int64, otherwise the fallback.
func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvFloat returns the env var parsed as float64, otherwise the fallback.
func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
