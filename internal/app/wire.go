package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/openforecast/marketd/internal/blob/s3"
	"github.com/openforecast/marketd/internal/cache/redis"
	"github.com/openforecast/marketd/internal/config"
	"github.com/openforecast/marketd/internal/domain"
	"github.com/openforecast/marketd/internal/server/handler"
	"github.com/openforecast/marketd/internal/store/memory"
	"github.com/openforecast/marketd/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// needs to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Stores
	MarketStore   domain.MarketStore
	PositionStore domain.PositionStore
	DisputeStore  domain.DisputeStore
	AdminStore    domain.AdminStore
	EventStore    domain.EventStore
	Treasury      domain.Treasury

	// Coordination
	OddsCache   domain.OddsCache
	LockManager domain.LockManager
	EventBus    domain.EventBus
	Clock       domain.Clock

	// Blob storage (nil unless archiving is enabled)
	Archiver *s3blob.Archiver

	// Health probes keyed by dependency name.
	Pingers map[string]handler.Pinger
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	clock := domain.NewSystemClock()
	deps := &Dependencies{
		Clock:   clock,
		Pingers: make(map[string]handler.Pinger),
	}

	// --- Persistence backend ---
	switch strings.ToLower(cfg.Storage.Backend) {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)
		deps.Pingers["postgres"] = pgClient

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.MarketStore = postgres.NewMarketStore(pool)
		deps.PositionStore = postgres.NewPositionStore(pool)
		deps.DisputeStore = postgres.NewDisputeStore(pool)
		deps.AdminStore = postgres.NewAdminStore(pool)
		deps.EventStore = postgres.NewEventStore(pool)
		deps.Treasury = postgres.NewTreasury(pool)

	case "memory":
		deps.MarketStore = memory.NewMarketStore()
		deps.PositionStore = memory.NewPositionStore()
		deps.DisputeStore = memory.NewDisputeStore()
		deps.AdminStore = memory.NewAdminStore()
		deps.EventStore = memory.NewEventStore()
		deps.Treasury = memory.NewTreasury()

	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unknown storage backend %q", cfg.Storage.Backend)
	}

	// --- Coordination: Redis when enabled, in-process otherwise ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Pingers["redis"] = redisClient

		deps.OddsCache = redis.NewOddsCache(redisClient, cfg.Market.OddsTTL.Duration)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.EventBus = redis.NewEventBus(redisClient)
	} else {
		deps.OddsCache = memory.NewOddsCache(cfg.Market.OddsTTL.Duration, clock)
		deps.LockManager = memory.NewLockManager()
		deps.EventBus = memory.NewEventBus()
	}

	// --- S3 archival (optional) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Pingers["s3"] = s3Client

		deps.Archiver = s3blob.NewArchiver(
			s3blob.ArchiverConfig{
				Interval: cfg.Archive.Interval.Duration,
				Prefix:   cfg.Archive.Prefix,
			},
			s3blob.NewWriter(s3Client),
			s3Client,
			deps.MarketStore,
			deps.PositionStore,
			deps.DisputeStore,
			deps.EventStore,
			clock,
			logger,
		)
	}

	return deps, cleanup, nil
}
