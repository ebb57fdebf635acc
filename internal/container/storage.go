package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/health"
	"github.com/serroba/linkstats/internal/shortener"
	"github.com/serroba/linkstats/internal/store"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// RedisClient is the shared Redis connection, closed on injector shutdown.
type RedisClient struct {
	*redis.Client
}

// Shutdown closes the connection pool.
func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// RedisPackage provides *RedisClient for the configured address.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
		}

		return &RedisClient{Client: client}, nil
	})
}

// PostgresPackage provides a migrated *store.PostgresStore.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*store.PostgresStore, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()

			return nil, err
		}

		logger.Info("postgres ready")

		return store.NewPostgresStore(pool), nil
	})
}

// StoragePackage provides the link and click repositories and the health checks
// of the backends they use. PostgreSQL is used when a database URL is set,
// the memory store otherwise; Redis, when configured, caches link lookups.
func StoragePackage(injector *do.Injector) {
	RedisPackage(injector)
	PostgresPackage(injector)

	do.Provide(injector, func(_ *do.Injector) (*store.MemoryStore, error) {
		return store.NewMemoryStore(), nil
	})

	do.Provide(injector, func(i *do.Injector) (analytics.ClickRepository, error) {
		if !do.MustInvoke[*Options](i).UsesPostgres() {
			return do.MustInvoke[*store.MemoryStore](i), nil
		}

		pg, err := do.Invoke[*store.PostgresStore](i)
		if err != nil {
			return nil, err
		}

		return pg, nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		var links shortener.Repository = do.MustInvoke[*store.MemoryStore](i)

		if opts.UsesPostgres() {
			pg, err := do.Invoke[*store.PostgresStore](i)
			if err != nil {
				return nil, err
			}

			links = pg
		}

		if !opts.UsesRedis() {
			return links, nil
		}

		client, err := do.Invoke[*RedisClient](i)
		if err != nil {
			return nil, err
		}

		ttl := time.Duration(opts.CacheTTLSeconds) * time.Second

		return store.NewRedisCacheRepository(links, client.Client, ttl), nil
	})

	do.Provide(injector, func(i *do.Injector) (health.Checks, error) {
		opts := do.MustInvoke[*Options](i)
		checks := health.Checks{}

		if opts.UsesPostgres() {
			pg, err := do.Invoke[*store.PostgresStore](i)
			if err != nil {
				return nil, err
			}

			checks["postgres"] = pg
		}

		if opts.UsesRedis() {
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			checks["redis"] = health.NewRedisChecker(client.Client)
		}

		return checks, nil
	})
}
