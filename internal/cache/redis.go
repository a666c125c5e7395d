package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"titlesearch/internal/connector/models"
)

// Redis key prefix for cached result sets.
const resultKeyPrefix = "search:fp:"

// Redis is the distributed cache backend for multi-instance deployments.
// Expiry is delegated to Redis key TTLs, so the lazy-expiry contract holds
// without any cleanup of our own.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an externally managed client. A non-positive ttl falls back
// to DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, fingerprint string) ([]models.Document, bool, error) {
	data, err := c.client.Get(ctx, resultKeyPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return docs, true, nil
}

func (c *Redis) Put(ctx context.Context, fingerprint string, docs []models.Document) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, resultKeyPrefix+fingerprint, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
