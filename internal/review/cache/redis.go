package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vetting/internal/risk"
)

const redisKeyPrefix = "vetting:"

// Redis shares assessments across instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key string) (risk.Assessment, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return risk.Assessment{}, false, nil
	}
	if err != nil {
		return risk.Assessment{}, false, fmt.Errorf("get risk cache: %w", err)
	}
	var a risk.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return risk.Assessment{}, false, fmt.Errorf("decode risk cache: %w", err)
	}
	return a, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, a risk.Assessment) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode risk cache: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set risk cache: %w", err)
	}
	return nil
}
