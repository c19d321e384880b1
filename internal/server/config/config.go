// Package config assembles the server configuration from, in order of
// increasing precedence: built-in defaults, a JSON file given with -c or
// -config, environment variables (optionally from a .env file) and
// command-line flags.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
)

// Config holds runtime settings for the cryptnotes server.
//
// SessionIdleTimeout is the single source for the inactivity window: the
// session store, the login response and the ops endpoint all read it.
type Config struct {
	EndpointAddrGRPC string `env:"ENDPOINT_ADDR_GRPC"`
	EndpointAddrHTTP string `env:"ENDPOINT_ADDR_HTTP"`
	DatabaseDSN      string `env:"DATABASE_DSN"`
	// SecretKey signs session tokens and seeds decoy key material.
	SecretKey string `env:"SECRET_KEY"`

	SessionIdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT"`
	SessionMaxLifetime   time.Duration `env:"SESSION_MAX_LIFETIME"`
	SessionPurgeInterval time.Duration `env:"SESSION_PURGE_INTERVAL"`

	LogMode string `env:"LOG_MODE"`

	// Export target; an empty bucket disables ExportNotes.
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT"`
}

// LoadDefaults populates Config with development defaults. The secret key
// is not defaulted.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":3200"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = "file:cryptnotes.db"
	c.SessionIdleTimeout = common.SessionIdleTimeout
	c.SessionMaxLifetime = 12 * time.Hour
	c.SessionPurgeInterval = time.Minute
	c.LogMode = "development"
	c.S3Region = "us-east-1"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return errors.New("secret key is required (SECRET_KEY or -s)")
	case len(c.SecretKey) < 16:
		return errors.New("secret key must be at least 16 characters")
	case c.DatabaseDSN == "":
		return errors.New("database DSN is required")
	case c.SessionIdleTimeout <= 0:
		return errors.New("session idle timeout must be positive")
	case c.SessionMaxLifetime < c.SessionIdleTimeout:
		return errors.New("session max lifetime must not be shorter than the idle timeout")
	case c.SessionPurgeInterval <= 0:
		return errors.New("session purge interval must be positive")
	}
	return nil
}

// ExportEnabled reports whether a bucket for ciphertext exports is set.
func (c *Config) ExportEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig reads configuration for the current process.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
