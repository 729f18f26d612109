package app

import (
	"context"
	"fmt"
	"log/slog"

	"buildops/internal/cache"
	"buildops/internal/config"
	"buildops/internal/costs"
	"buildops/internal/database"
	"buildops/internal/events"
	"buildops/internal/risk"
	"buildops/internal/weather"

	"gorm.io/gorm"
)

// Container holds the wired services shared by the HTTP server and the CLI.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DB    *gorm.DB
	Store *database.Store

	// Cache is nil when REDIS_ADDR is unset or Redis is unreachable.
	Cache     *cache.RedisCache
	Publisher events.Publisher

	Scorer    *risk.Scorer
	Predictor *costs.Predictor
	// Rescheduler is nil when WEATHER_API_KEY is unset.
	Rescheduler *weather.Rescheduler

	ownsDB bool
}

// NewContainer connects to Postgres and the optional Redis and RabbitMQ
// backends, then builds the analysis services.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Open(cfg.DBDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c := WithDB(ctx, cfg, db, logger)
	c.ownsDB = true
	return c, nil
}

// WithDB builds the container around an already opened database. Close
// leaves that database open.
func WithDB(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Store:  database.NewStore(db),
	}

	// Redis (необязателен): без него прогноз не кэшируется
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("Redis not available, forecast cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			c.Cache = rc
			logger.Info("connected to Redis", "addr", cfg.RedisAddr)
		}
	}

	// RabbitMQ (необязателен): без него события только логируются
	c.Publisher = events.NewNoopPublisher(logger)
	if cfg.AMQPURL != "" {
		p, err := events.NewRabbitMQPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, events will be logged only", "error", err)
		} else {
			c.Publisher = p
		}
	}

	c.Scorer = risk.NewScorer(c.Store, c.Publisher, logger)
	c.Predictor = costs.NewPredictor(c.Store, logger)

	if cfg.WeatherEnabled() {
		client := weather.NewClient(cfg.WeatherAPIKey, logger).
			WithBaseURL(cfg.WeatherBaseURL).
			WithTimeout(cfg.WeatherTimeout)

		var provider weather.Provider = client
		if c.Cache != nil {
			provider = weather.NewCachedProvider(client, c.Cache, cfg.WeatherCacheTTL, logger)
		}
		c.Rescheduler = weather.NewRescheduler(c.Store, provider, c.Publisher, logger)
	} else {
		logger.Info("WEATHER_API_KEY not set, weather rescheduling disabled")
	}

	return c
}

// Close releases the broker, cache and database connections.
func (c *Container) Close() {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.ownsDB && c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				c.Logger.Warn("error closing database", "error", err)
			}
		}
	}
}
