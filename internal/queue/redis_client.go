package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient uses a Redis list as a simple FIFO queue.
type RedisClient struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
}

// NewRedisClient parses a redis:// URL and returns a list-backed queue.
func NewRedisClient(url, key string) (*RedisClient, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisClientWith(redis.NewClient(opts), key), nil
}

// NewRedisClientWith wraps an existing client.
func NewRedisClientWith(client *redis.Client, key string) *RedisClient {
	if strings.TrimSpace(key) == "" {
		key = "generations"
	}
	return &RedisClient{client: client, key: key, blockTimeout: 20 * time.Second}
}

// Send appends the encoded message to the list.
func (r *RedisClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode redis message: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, payload).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// Receive blocks until a message is available or the block timeout passes.
func (r *RedisClient) Receive(ctx context.Context) ([]Delivery, error) {
	// BLPop returns [key, value].
	result, err := r.client.BLPop(ctx, r.blockTimeout, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return []Delivery{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis blpop: %w", err)
	}
	if len(result) < 2 {
		return []Delivery{}, nil
	}
	return []Delivery{{ID: r.key, Body: result[1]}}, nil
}

// Ack is a no-op: BLPOP already removed the item.
func (r *RedisClient) Ack(ctx context.Context, d Delivery) error {
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

var (
	_ Client   = (*RedisClient)(nil)
	_ Receiver = (*RedisClient)(nil)
)
