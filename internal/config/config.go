package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the server. Values come from the
// environment, with an optional .env file loaded first.
type Config struct {
	// Addr is the listen address for the HTTP adapter.
	Addr string `env:"PEACEWAR_ADDR" envDefault:":8080"`
	// DatabaseURL is the Postgres DSN. When empty the server falls back to
	// the in-memory store and loses state on restart.
	DatabaseURL string `env:"PEACEWAR_DATABASE_URL"`
	// Debug enables debug logging.
	Debug bool `env:"PEACEWAR_DEBUG" envDefault:"false"`
}

// Load reads .env when present and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
