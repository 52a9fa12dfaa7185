// Package redis implements index.EmbeddingCache on Redis, so repeated corpus
// builds skip re-embedding unchanged chunk text.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veracity-ai/veracity/rag/index"
)

// Config holds Redis cache configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys; embeddings from different models must use
	// different prefixes or they will collide.
	Prefix string
	// TTL expires cached embeddings. Zero keeps them forever.
	TTL time.Duration
}

// DefaultConfig returns a local-development Redis configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:   "localhost:6379",
		Prefix: "veracity:embedding:",
		TTL:    24 * time.Hour,
	}
}

// Cache is a Redis-backed embedding cache.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Cache and verifies the connection.
func New(ctx context.Context, config *Config) (*Cache, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Prefix == "" {
		config.Prefix = DefaultConfig().Prefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}, nil
}

// Get returns the cached embedding for text, or (nil, nil) on a miss.
func (c *Cache) Get(ctx context.Context, text string) ([]float32, error) {
	data, err := c.client.Get(ctx, c.key(text)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		// A corrupt entry reads as a miss so the build re-embeds it.
		return nil, nil
	}
	return vec, nil
}

// Put stores the embedding for text.
func (c *Cache) Put(ctx context.Context, text string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	if err := c.client.Set(ctx, c.key(text), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// key hashes the chunk text; raw text is unbounded and may contain bytes
// awkward in a Redis key.
func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

var _ index.EmbeddingCache = (*Cache)(nil)
