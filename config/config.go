package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service and scraper configuration.
type Config struct {
	BaseURL         string
	MaxPages        int
	Timeout         time.Duration
	UserAgent       string
	Host            string
	Port            int
	MetricsAddr     string
	SearchCacheSize int
	ShutdownTimeout time.Duration
	Eager           bool   // populate at startup instead of on first request
	ExportFile      string // optional snapshot dump
	ExportFormat    string // csv or json
	Verbose         bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "http://books.toscrape.com",
		MaxPages:        10,
		Timeout:         10 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Host:            "0.0.0.0",
		Port:            5000,
		MetricsAddr:     "",
		SearchCacheSize: 128,
		ShutdownTimeout: 5 * time.Second,
		ExportFormat:    "json",
	}
}

// Addr returns the listen address for the API server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.SearchCacheSize <= 0 {
		return fmt.Errorf("search cache size must be positive")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout cannot be negative")
	}
	if c.ExportFile != "" && c.ExportFormat != "csv" && c.ExportFormat != "json" {
		return fmt.Errorf("export format must be csv or json")
	}

	return nil
}

// EnvInt reads an integer environment variable. ok is false when the variable is unset or blank.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvString reads a trimmed environment variable. ok is false when it is unset or blank.
func EnvString(key string) (string, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	return raw, true
}
