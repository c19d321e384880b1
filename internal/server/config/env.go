package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// envFile is loaded if present; real environment variables win over it.
var envFile = ".env"

func parseEnv(cfg *Config) error {
	_ = godotenv.Load(envFile)
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
