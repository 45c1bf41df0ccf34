// Package config loads satrack settings from defaults, an optional YAML
// file, a .env file and SATRACK_* environment variables, in that order.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SATRACK_"

// Config is the top-level satrack configuration.
type Config struct {
	BaseURL        string        `koanf:"base_url"`
	Timeout        time.Duration `koanf:"timeout"`
	Layout         string        `koanf:"layout"`
	SubmitOnSelect bool          `koanf:"submit_on_select"`
	LogLevel       string        `koanf:"log_level"`
	MetricsAddr    string        `koanf:"metrics_addr"`
}

// Default returns the built-in configuration. A zero Timeout lets requests
// wait for the server indefinitely.
func Default() *Config {
	return &Config{
		BaseURL:        "http://localhost:5000",
		Layout:         "grid",
		SubmitOnSelect: true,
		LogLevel:       "info",
	}
}

// Load reads path (if it exists), then envFile (if it exists) into the
// process environment, then SATRACK_* overrides.
func Load(path, envFile string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}

	// SATRACK_BASE_URL -> base_url, etc.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

var validLayouts = map[string]bool{
	"grid":  true,
	"table": true,
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url %q: must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url %q: missing host", c.BaseURL)
	}

	if !validLayouts[c.Layout] {
		return fmt.Errorf("invalid layout %q: must be one of grid, table", c.Layout)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
