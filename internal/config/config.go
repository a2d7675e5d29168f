// Package config provides configuration loading and validation for the CLI.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults applied when neither flags nor environment provide a value.
const (
	DefaultBaseURL = "http://127.0.0.1:8000/api"
	DefaultTimeout = 30 * time.Second
)

// Config holds the client configuration. Values come from flags, environment
// variables (BILLING_API_URL, BILLING_HTTP_TIMEOUT, BILLING_STATE_DIR), or
// defaults, in that priority order.
type Config struct {
	// BaseURL is the backend API root every request path is resolved against.
	BaseURL string
	// Timeout bounds each HTTP round trip. There are no retries; a timeout
	// is terminal for the attempted action.
	Timeout time.Duration
	// StateDir is where the session state file lives (token, expiry, user,
	// cooldown map). It is the client's only persistent store.
	StateDir string
	// Verbose enables request/response tracing on stderr.
	Verbose bool
}

// FromEnv builds a Config from environment variables, filling unset values
// with defaults. The caller is expected to have loaded .env already.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BaseURL:  os.Getenv("BILLING_API_URL"),
		StateDir: os.Getenv("BILLING_STATE_DIR"),
		Timeout:  DefaultTimeout,
	}

	if v := os.Getenv("BILLING_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			// Plain seconds are accepted too, matching how the backend
			// expresses timeouts.
			secs, serr := strconv.Atoi(v)
			if serr != nil {
				return nil, fmt.Errorf("invalid BILLING_HTTP_TIMEOUT: %v", err)
			}
			d = time.Duration(secs) * time.Second
		}
		cfg.Timeout = d
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".config", "billingctl")
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *Config) normalize() error {
	if c.BaseURL == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive, got %v", c.Timeout)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state directory cannot be empty")
	}
	return nil
}

// StateFile returns the path of the session state file.
func (c *Config) StateFile() string {
	return filepath.Join(c.StateDir, "state.json")
}
