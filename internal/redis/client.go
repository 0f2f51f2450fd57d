package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Tracking tokens prove ownership of an order to the realtime layer. One is
// issued per order at creation time and expires on its own.

func (c *Client) SetTrackingToken(orderID uint, token string, ttl time.Duration) error {
	ctx := context.Background()
	key := fmt.Sprintf("track:%d", orderID)
	return c.rdb.Set(ctx, key, token, ttl).Err()
}

// GetTrackingToken returns the token for orderID, or "" when none is stored
// (never issued, or expired).
func (c *Client) GetTrackingToken(orderID uint) (string, error) {
	ctx := context.Background()
	key := fmt.Sprintf("track:%d", orderID)
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get tracking token: %w", err)
	}
	return val, nil
}

// Admin stats cache

func (c *Client) SetCachedStats(stats interface{}, ttl time.Duration) error {
	ctx := context.Background()
	jsonData, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	return c.rdb.Set(ctx, "stats:orders", jsonData, ttl).Err()
}

// GetCachedStats unmarshals the cached stats into dest. Returns false when
// the cache is cold.
func (c *Client) GetCachedStats(dest interface{}) (bool, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, "stats:orders").Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cached stats: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached stats: %w", err)
	}
	return true, nil
}

func (c *Client) Ping() error {
	return c.rdb.Ping(context.Background()).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
