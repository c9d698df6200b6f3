// Package config loads application configuration from a YAML file with
// environment variable overrides and defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL              string `yaml:"base_url"`
		QuoteTimeoutSec      int    `yaml:"quote_timeout_sec"`
		ChartTimeoutSec      int    `yaml:"chart_timeout_sec"`
		MaxRequestsPerMinute int    `yaml:"max_requests_per_minute"`
		Burst                int    `yaml:"burst"`
		UserAgent            string `yaml:"user_agent"`
	} `yaml:"provider"`
	Cache struct {
		// TTLs in seconds; 0 keeps entries for the process lifetime.
		PriceTTLSec int `yaml:"price_ttl_sec"`
		RateTTLSec  int `yaml:"rate_ttl_sec"`
	} `yaml:"cache"`
	Refresh struct {
		Cron    string   `yaml:"cron"`
		Symbols []string `yaml:"symbols"`
		// Pairs are "FROM-TO" currency pairs to keep warm.
		Pairs []string `yaml:"pairs"`
	} `yaml:"refresh"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. An empty path falls back to config.yaml when present; a
// missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("STOCKLIO_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("STOCKLIO_USER_AGENT"); v != "" {
		cfg.Provider.UserAgent = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("STOCKLIO_REFRESH_CRON"); v != "" {
		cfg.Refresh.Cron = v
	}
	if v := os.Getenv("STOCKLIO_REFRESH_SYMBOLS"); v != "" {
		cfg.Refresh.Symbols = splitCSV(v)
	}

	// Defaults
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Provider.QuoteTimeoutSec <= 0 {
		cfg.Provider.QuoteTimeoutSec = 10
	}
	if cfg.Provider.ChartTimeoutSec <= 0 {
		cfg.Provider.ChartTimeoutSec = 15
	}
	if cfg.Provider.Burst <= 0 {
		cfg.Provider.Burst = 1
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
