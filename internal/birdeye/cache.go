package birdeye

import (
	"context"
	"encoding/json"
	"time"

	"trendbet-bot/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps display trending lists in redis under trending:<network>.
type RedisCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewRedisCache(r *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{R: r, TTL: ttl}
}

func keyTrending(network string) string { return "trending:" + network }

func (c *RedisCache) GetTrending(ctx context.Context, network string) ([]models.TokenSnapshot, bool, error) {
	b, err := c.R.Get(ctx, keyTrending(network)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var tokens []models.TokenSnapshot
	if err := json.Unmarshal(b, &tokens); err != nil {
		return nil, false, err
	}
	return tokens, true, nil
}

func (c *RedisCache) SetTrending(ctx context.Context, network string, tokens []models.TokenSnapshot) error {
	if c.TTL <= 0 {
		return nil
	}
	b, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyTrending(network), b, c.TTL).Err()
}
