package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkstats/internal/metrics"
	"github.com/serroba/linkstats/internal/shortener"
)

// RedisCacheRepository wraps a Repository with Redis caching for code lookups.
// Links never change after creation, so cached entries need no invalidation.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
// A zero ttl keeps entries until Redis evicts them.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

// Create stores the link in the underlying store and writes it to the cache.
func (r *RedisCacheRepository) Create(ctx context.Context, link *shortener.Link) error {
	if err := r.store.Create(ctx, link); err != nil {
		return err
	}

	r.cacheLink(ctx, link)

	return nil
}

// GetByCode checks the cache first and populates it on a miss.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if link, err := r.getFromCache(ctx, code); err == nil {
		metrics.CacheLookups.WithLabelValues("hit").Inc()

		return link, nil
	}

	metrics.CacheLookups.WithLabelValues("miss").Inc()

	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// ListByOwner is not cached.
func (r *RedisCacheRepository) ListByOwner(ctx context.Context, owner shortener.OwnerID) ([]shortener.Link, error) {
	return r.store.ListByOwner(ctx, owner)
}

// CodeExists answers from the cache when the code is cached and asks the store otherwise.
func (r *RedisCacheRepository) CodeExists(ctx context.Context, code shortener.Code) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+string(code)).Result()
	if err == nil && n > 0 {
		return true, nil
	}

	return r.store.CodeExists(ctx, code)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos).UTC()
		}
	}

	return &shortener.Link{
		Code:        shortener.Code(result["code"]),
		OriginalURL: result["original_url"],
		Owner:       shortener.OwnerID(result["owner_id"]),
		CreatedAt:   createdAt,
	}, nil
}

// cacheLink is best effort; a failed write only costs a later miss.
func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.Link) {
	pipe := r.client.Pipeline()
	key := r.prefix + string(link.Code)

	pipe.HSet(ctx, key, map[string]interface{}{
		"code":         string(link.Code),
		"original_url": link.OriginalURL,
		"owner_id":     string(link.Owner),
		"created_at":   link.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
