// Package config loads CLI configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBase      = "http://localhost:8000"
	defaultStore        = "file"
	defaultResultsDir   = ".mergeflow/results"
	defaultRedisAddr    = "localhost:6379"
	defaultPollInterval = 1500 * time.Millisecond
)

// Config holds everything the CLI needs to reach the merge service and a
// result store.
type Config struct {
	// APIBase is the merge service base URL.
	APIBase string `yaml:"api_base"`

	// Store selects the result store backend: "file", "redis", or "memory".
	Store string `yaml:"store"`

	// ResultsDir is the file store directory.
	ResultsDir string `yaml:"results_dir"`

	// Redis settings, used when Store is "redis".
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// PollIntervalMS is the delay between completed job polls.
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// PollInterval returns the configured poll delay.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return defaultPollInterval
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	return filepath.Join(".mergeflow", "config.yaml")
}

// Load reads path (when it exists), applies environment overrides, then
// defaults. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to env + defaults
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.Store != "file" && cfg.Store != "redis" && cfg.Store != "memory" {
		return nil, fmt.Errorf("unknown store backend %q (want file, redis, or memory)", cfg.Store)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MERGEFLOW_API_BASE"); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv("MERGEFLOW_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("MERGEFLOW_RESULTS_DIR"); v != "" {
		cfg.ResultsDir = v
	}
	if v := os.Getenv("MERGEFLOW_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("MERGEFLOW_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MERGEFLOW_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.PollIntervalMS = ms
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Store == "" {
		cfg.Store = defaultStore
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = defaultResultsDir
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = defaultRedisAddr
	}
}
