package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
)

const (
	redisPingAttempts = 5
	redisPingBackoff  = time.Second
)

// NewRedisClient creates and validates a Redis client connection. The first
// ping is retried a few times so the server can start alongside Redis.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	var pingErr error
	for attempt := 1; attempt <= redisPingAttempts; attempt++ {
		if pingErr = rdb.Ping(ctx).Err(); pingErr == nil {
			break
		}
		log.Warn().Err(pingErr).Int("attempt", attempt).Msg("Redis not ready")
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * redisPingBackoff):
		}
	}
	if pingErr != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}
