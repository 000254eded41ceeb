// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server configures the identity service.
type Server struct {
	Addr       string        `env:"AUTHFLOW_ADDR" envDefault:":8080"`
	DBPath     string        `env:"AUTHFLOW_DB_PATH" envDefault:"./data/identity.db"`
	JWTSecret  string        `env:"AUTHFLOW_JWT_SECRET,required,notEmpty"`
	TokenTTL   time.Duration `env:"AUTHFLOW_TOKEN_TTL" envDefault:"24h"`
	PurgeEvery time.Duration `env:"AUTHFLOW_PURGE_INTERVAL" envDefault:"1h"`
}

// Client configures the authcli presentation client.
type Client struct {
	ServerURL   string        `env:"AUTHFLOW_SERVER_URL" envDefault:"http://localhost:8080"`
	SessionPath string        `env:"AUTHFLOW_SESSION_PATH,expand" envDefault:"${HOME}/.config/authflow/session.json"`
	Timeout     time.Duration `env:"AUTHFLOW_TIMEOUT" envDefault:"30s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
