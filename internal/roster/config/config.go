package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds configuration for the roster core.
type Config struct {
	// Remote API
	APIBaseURL   string        `env:"ROSTER_API_BASE_URL" envDefault:"http://localhost:8081/api"`
	APITimeout   time.Duration `env:"ROSTER_API_TIMEOUT" envDefault:"15s"`
	MaxBodyBytes int64         `env:"ROSTER_MAX_BODY_BYTES" envDefault:"4194304"`

	// AdvisoryCooldown suppresses repeat rate-limit advisories
	AdvisoryCooldown time.Duration `env:"ROSTER_ADVISORY_COOLDOWN" envDefault:"30s"`

	// Paging defaults for list views
	DefaultPageSize int    `env:"ROSTER_DEFAULT_PAGE_SIZE" envDefault:"10"`
	DefaultSort     string `env:"ROSTER_DEFAULT_SORT" envDefault:"id,asc"`
}

// LoadConfig loads configuration from environment variables and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load roster configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the base URL and checks ranges.
func (c *Config) Validate() error {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("roster api base url %q must be an absolute URL", c.APIBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("roster api base url scheme must be http or https, got %q", u.Scheme)
	}
	if c.APITimeout <= 0 {
		return errors.New("roster api timeout must be positive")
	}
	if c.AdvisoryCooldown <= 0 {
		return errors.New("roster advisory cooldown must be positive")
	}
	if c.DefaultPageSize <= 0 {
		return errors.New("roster default page size must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("roster max body bytes must be positive")
	}
	return nil
}

// DefaultConfig returns the defaults pointed at baseURL
func DefaultConfig(baseURL string) *Config {
	return &Config{
		APIBaseURL:       strings.TrimRight(baseURL, "/"),
		APITimeout:       15 * time.Second,
		MaxBodyBytes:     4 << 20,
		AdvisoryCooldown: 30 * time.Second,
		DefaultPageSize:  10,
		DefaultSort:      "id,asc",
	}
}
