//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkstats/internal/shortener"
	"github.com/serroba/linkstats/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisCacheRepositoryIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	t.Run("serves cached link after create", func(t *testing.T) {
		backing := store.NewMemoryStore()
		repo := store.NewRedisCacheRepository(backing, client, time.Minute)
		link := &shortener.Link{
			Code:        "rc000001",
			OriginalURL: "https://example.com/cached",
			Owner:       "alice",
			CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		}
		t.Cleanup(func() { client.Del(ctx, "link:rc000001") })

		require.NoError(t, repo.Create(ctx, link))

		got, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, link.OriginalURL, got.OriginalURL)
		assert.Equal(t, link.Owner, got.Owner)
		assert.True(t, link.CreatedAt.Equal(got.CreatedAt))

		exists, err := repo.CodeExists(ctx, link.Code)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("populates cache on miss", func(t *testing.T) {
		backing := store.NewMemoryStore()
		require.NoError(t, backing.Create(ctx, &shortener.Link{Code: "rc000002", OriginalURL: "https://example.com/miss"}))
		t.Cleanup(func() { client.Del(ctx, "link:rc000002") })

		repo := store.NewRedisCacheRepository(backing, client, time.Minute)

		_, err := repo.GetByCode(ctx, "rc000002")
		require.NoError(t, err)

		n, err := client.Exists(ctx, "link:rc000002").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("duplicate create is rejected by the backing store", func(t *testing.T) {
		backing := store.NewMemoryStore()
		repo := store.NewRedisCacheRepository(backing, client, time.Minute)
		t.Cleanup(func() { client.Del(ctx, "link:rc000003") })

		require.NoError(t, repo.Create(ctx, &shortener.Link{Code: "rc000003", OriginalURL: "https://a.com"}))

		err := repo.Create(ctx, &shortener.Link{Code: "rc000003", OriginalURL: "https://b.com"})
		assert.ErrorIs(t, err, shortener.ErrCodeTaken)
	})

	t.Run("unknown code returns ErrNotFound", func(t *testing.T) {
		repo := store.NewRedisCacheRepository(store.NewMemoryStore(), client, time.Minute)

		_, err := repo.GetByCode(ctx, "rcmissing")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})
}
