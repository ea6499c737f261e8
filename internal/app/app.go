// Package app provides the application bootstrap: it wires configuration,
// storage and the Telegram moderation bot together.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/oxeigns/guard-bot/internal/platform/config"
	"github.com/oxeigns/guard-bot/internal/platform/observability"
	"github.com/oxeigns/guard-bot/internal/storage"
	"github.com/oxeigns/guard-bot/internal/telegrambot"
)

// App holds the application dependencies.
type App struct {
	cfg      *config.Config
	database *storage.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *storage.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.database, a.cfg.HealthPort, a.logger).Start(ctx)
}

// RunBot runs the Telegram moderation bot until the context is cancelled.
func (a *App) RunBot(ctx context.Context) error {
	bot, err := telegrambot.New(a.cfg, a.database, a.logger)
	if err != nil {
		return err
	}

	return bot.Run(ctx)
}
