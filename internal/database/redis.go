package database

import (
	"context"
	"fmt"

	"trendbet-bot/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func ConnectRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("connected to redis", zap.String("addr", cfg.RedisAddr()))
	return rdb, nil
}
