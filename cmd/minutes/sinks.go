package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/minutes/internal/config"
	"github.com/MikeSquared-Agency/minutes/internal/hermes"
	"github.com/MikeSquared-Agency/minutes/internal/processor"
	"github.com/MikeSquared-Agency/minutes/internal/slack"
	"github.com/MikeSquared-Agency/minutes/internal/store"
)

// backends are the optional outcome destinations built from config. Nil
// fields are not configured.
type backends struct {
	db     *store.Store
	bus    *hermes.Client
	poster *slack.Poster
}

func connectBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	// Database (optional)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		b.db = db
		if err := db.Migrate(ctx); err != nil {
			b.Close()
			return nil, err
		}
		logger.Info("database connected")
	} else {
		logger.Warn("DATABASE_URL not set, analyses will not be stored")
	}

	// NATS/Hermes (optional)
	if cfg.NatsURL != "" {
		bus, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect NATS: %w", err)
		}
		b.bus = bus
		logger.Info("NATS connected", "url", cfg.NatsURL)
	}

	// Slack poster (optional)
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		b.poster = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, logger)
		logger.Info("slack poster ready", "channel", cfg.SlackChannel)
	}

	return b, nil
}

// sinks converts the configured backends to processor sinks, leaving
// unconfigured ones as nil interfaces.
func (b *backends) sinks() processor.Sinks {
	var s processor.Sinks
	if b.db != nil {
		s.Store = b.db
	}
	if b.bus != nil {
		s.Events = b.bus
	}
	if b.poster != nil {
		s.Notifier = b.poster
	}
	return s
}

func (b *backends) Close() {
	if b.bus != nil {
		b.bus.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
}
