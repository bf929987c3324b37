// Package app assembles the review pipeline from configuration. Binaries build one App,
// use its Service and close it on exit.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/theflex/reviews/pkg/common/config"
	"github.com/theflex/reviews/pkg/common/database"
	"github.com/theflex/reviews/pkg/common/kafka"
	"github.com/theflex/reviews/pkg/common/logger"
	"github.com/theflex/reviews/pkg/hostaway"
	"github.com/theflex/reviews/pkg/properties"
	"github.com/theflex/reviews/pkg/reviews"
	"github.com/theflex/reviews/pkg/runs"
	"gorm.io/gorm"
)

type App struct {
	Service *reviews.Service

	db       *gorm.DB
	redis    *redis.Client
	producer *kafka.Producer
}

// Build opens the configured store, run tracker and event producer.
func Build(cfg *config.Config) (*App, error) {
	a := &App{}

	store, err := a.openStore(cfg)
	if err != nil {
		return nil, err
	}

	var tracker runs.Tracker = runs.NewMemoryTracker()
	if cfg.RedisEnabled {
		a.redis = database.OpenRedis(cfg)
		tracker = runs.NewRedisTracker(a.redis, cfg.RunReportTTL)
	}

	var events reviews.EventPublisher
	if cfg.KafkaEnabled() {
		a.producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaReviewTopic)
		events = a.producer
	}

	catalog, err := properties.Load(cfg.PropertyCatalogPath)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.PropertyCatalogPath).Warn("property catalog unavailable, using defaults")
		catalog = properties.DefaultCatalog()
	}

	sources := reviews.Sources{
		Fixture: hostaway.NewFixtureSource(cfg.HostawayFixturePath),
		API: hostaway.NewAPISource(hostaway.APIConfig{
			BaseURL:   cfg.HostawayBaseURL,
			AccountID: cfg.HostawayAccountID,
			APIKey:    cfg.HostawayAPIKey,
			TokenURL:  cfg.HostawayTokenURL,
			Timeout:   cfg.HostawayTimeout,
		}),
	}

	a.Service = reviews.NewService(store, sources, tracker, events, catalog)
	return a, nil
}

func (a *App) openStore(cfg *config.Config) (reviews.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Log.Warn("using in-memory review store, data is lost on exit")
		return reviews.NewMemoryStore(), nil
	case config.StoreDriverPostgres:
		db, err := database.OpenPostgres(cfg)
		if err != nil {
			return nil, err
		}
		store := reviews.NewGormStore(db)
		if err := store.AutoMigrate(); err != nil {
			_ = database.ClosePostgres(db)
			return nil, fmt.Errorf("migrating review tables: %w", err)
		}
		a.db = db
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Ready pings the backing services that are configured.
func (a *App) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	errs = append(errs, database.CloseRedis(a.redis), database.ClosePostgres(a.db))
	return errors.Join(errs...)
}
