// Package config loads claimboard settings. Later sources win: built-in
// defaults, then the YAML file, then the environment, then command-line flags
// (applied by the cli package).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/abrezinsky/claimboard/internal/errors"
)

// EnvAPIBaseURL overrides api_base_url
const EnvAPIBaseURL = "API_BASE_URL"

// Defaults
const (
	DefaultAPIBaseURL      = "http://localhost:4000/api"
	DefaultRequestTimeout  = 10 * time.Second
	DefaultHistoryPageSize = 5
	DefaultNotificationTTL = 3 * time.Second
	DefaultListen          = ":8082"
	DefaultLogLevel        = "info"
	DefaultLedgerListen    = ":4000"
	DefaultLedgerDB        = "ledger.db"
	DefaultMaxPoints       = 10
)

// Config holds every claimboard setting
type Config struct {
	APIBaseURL      string        `yaml:"api_base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	HistoryPageSize int           `yaml:"history_page_size"`
	NotificationTTL time.Duration `yaml:"notification_ttl"`
	Listen          string        `yaml:"listen"`
	LogLevel        string        `yaml:"log_level"`
	Ledger          LedgerConfig  `yaml:"ledger"`
}

// LedgerConfig configures the development ledger
type LedgerConfig struct {
	Listen    string `yaml:"listen"`
	DB        string `yaml:"db"`
	MaxPoints int    `yaml:"max_points"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		APIBaseURL:      DefaultAPIBaseURL,
		RequestTimeout:  DefaultRequestTimeout,
		HistoryPageSize: DefaultHistoryPageSize,
		NotificationTTL: DefaultNotificationTTL,
		Listen:          DefaultListen,
		LogLevel:        DefaultLogLevel,
		Ledger: LedgerConfig{
			Listen:    DefaultLedgerListen,
			DB:        DefaultLedgerDB,
			MaxPoints: DefaultMaxPoints,
		},
	}
}

// Load returns the defaults overlaid with the file at path (skipped when path
// is empty) and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.Merge(data); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// Merge overlays YAML data on c. Keys not present keep their value; unknown
// keys are rejected.
func (c *Config) Merge(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables using lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIBaseURL); ok && strings.TrimSpace(v) != "" {
		c.APIBaseURL = strings.TrimSpace(v)
	}
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return apperrors.Validation("api_base_url must not be empty")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperrors.Validationf("api_base_url %q is not an absolute URL", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return apperrors.Validation("request_timeout must be positive")
	}
	if c.HistoryPageSize <= 0 {
		return apperrors.Validation("history_page_size must be positive")
	}
	if c.NotificationTTL <= 0 {
		return apperrors.Validation("notification_ttl must be positive")
	}
	if c.Listen == "" {
		return apperrors.Validation("listen must not be empty")
	}
	return nil
}

// ValidateLedger reports the first invalid ledger setting
func (c Config) ValidateLedger() error {
	if c.Ledger.Listen == "" {
		return apperrors.Validation("ledger.listen must not be empty")
	}
	if c.Ledger.DB == "" {
		return apperrors.Validation("ledger.db must not be empty")
	}
	if c.Ledger.MaxPoints <= 0 {
		return apperrors.Validation("ledger.max_points must be positive")
	}
	return nil
}
