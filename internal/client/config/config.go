package config

import (
	"errors"
	"os"
	"time"
)

// Config holds runtime settings for the cryptnotes CLI.
type Config struct {
	ServerEndpointAddr string        `env:"SERVER_ENDPOINT_ADDR"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	Verbose            bool          `env:"CRYPTNOTES_VERBOSE"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:3200"
	c.RequestTimeout = 10 * time.Second
}

func (c *Config) Validate() error {
	switch {
	case c.ServerEndpointAddr == "":
		return errors.New("server endpoint address is required")
	case c.RequestTimeout <= 0:
		return errors.New("request timeout must be positive")
	}
	return nil
}

// LoadConfig builds a Config for the current process.
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
