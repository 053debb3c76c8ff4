package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Durable storage backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config holds all configuration for the session module.
type Config struct {
	// Token minting
	TokenSecret string `env:"SESSION_TOKEN_SECRET,required"`
	TokenIssuer string `env:"SESSION_TOKEN_ISSUER" envDefault:"roster-console"`

	// RememberTTL is the lifetime of a durable ("remember me") session
	RememberTTL time.Duration `env:"SESSION_REMEMBER_TTL" envDefault:"168h"`
	// EphemeralTTL bounds an ephemeral session; zero means process lifetime
	EphemeralTTL time.Duration `env:"SESSION_EPHEMERAL_TTL" envDefault:"0s"`

	// Storage
	DurableBackend string `env:"SESSION_DURABLE_BACKEND" envDefault:"memory"`
	KeyPrefix      string `env:"SESSION_KEY_PREFIX" envDefault:""`

	RedisAddr     string `env:"SESSION_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"SESSION_REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"SESSION_REDIS_DB" envDefault:"0"`
	RedisTLS      bool   `env:"SESSION_REDIS_TLS" envDefault:"false"`

	MongoURI        string `env:"SESSION_MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string `env:"SESSION_MONGODB_DATABASE" envDefault:"roster_console"`
	MongoCollection string `env:"SESSION_MONGODB_COLLECTION" envDefault:"session_store"`

	// DemoUsers overrides the built-in demo identities.
	// Format: email:secret:name:role[,...]
	DemoUsers string `env:"SESSION_DEMO_USERS" envDefault:""`
	// BcryptCost for hashing demo secrets at startup
	BcryptCost int `env:"SESSION_BCRYPT_COST" envDefault:"10"`
}

// LoadConfig loads configuration from environment variables and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load session configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("session token secret is required")
	}
	if c.TokenIssuer == "" {
		return errors.New("session token issuer is required")
	}
	if c.RememberTTL <= 0 {
		return errors.New("session remember TTL must be positive")
	}
	if c.EphemeralTTL < 0 {
		return errors.New("session ephemeral TTL cannot be negative")
	}

	c.DurableBackend = strings.ToLower(strings.TrimSpace(c.DurableBackend))
	switch c.DurableBackend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("session durable backend must be one of %q, %q or %q, got %q",
			BackendMemory, BackendRedis, BackendMongo, c.DurableBackend)
	}
	return nil
}

// DefaultConfig returns a configuration usable in tests and local runs.
func DefaultConfig() *Config {
	return &Config{
		TokenSecret:     "roster-console-development-secret",
		TokenIssuer:     "roster-console",
		RememberTTL:     7 * 24 * time.Hour,
		DurableBackend:  BackendMemory,
		RedisAddr:       "localhost:6379",
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "roster_console",
		MongoCollection: "session_store",
		BcryptCost:      10,
	}
}
