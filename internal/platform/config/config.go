// Package config loads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	BotToken    string `env:"BOT_TOKEN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// WarnLimit is the strike count at which a violating user is muted.
	WarnLimit int `env:"WARN_LIMIT" envDefault:"3"`

	// UpdateTimeout is the long-poll timeout in seconds for GetUpdates.
	UpdateTimeout int `env:"UPDATE_TIMEOUT" envDefault:"60"`

	// TelegramRateLimitRPS caps outbound bot API calls per second.
	TelegramRateLimitRPS float64 `env:"TELEGRAM_RATE_LIMIT_RPS" envDefault:"20"`

	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"0"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"0"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"0s"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"0s"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"0s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
