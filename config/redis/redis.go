package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/joy095/ledger/logger"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
	redisErr    error
)

// Init connects the shared client. An empty URL leaves Redis disabled.
func Init(ctx context.Context, redisURL string) error {
	redisOnce.Do(func() {
		if redisURL == "" {
			redisErr = fmt.Errorf("redis disabled: REDIS_URL not set")
			return
		}

		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			redisErr = fmt.Errorf("invalid REDIS_URL: %w", err)
			return
		}

		client := redis.NewClient(opt)
		if _, err := client.Ping(ctx).Result(); err != nil {
			client.Close()
			redisErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}

		redisClient = client
		logger.InfoLogger.Info("Connected to Redis")
	})
	return redisErr
}

// GetRedisClient returns the shared client or an error when Redis is disabled.
func GetRedisClient() (*redis.Client, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client not initialized; check REDIS_URL and connectivity")
	}
	return redisClient, nil
}

func CloseRedis() {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.ErrorLogger.Errorf("Error closing Redis connection: %v", err)
		}
		logger.InfoLogger.Info("Redis connection closed")
	}
}
