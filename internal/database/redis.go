package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/submission-portal/internal/config"
)

const redisPingTimeout = 3 * time.Second

// NewRedisClient connects the settings cache. Redis is optional: with no URL,
// or when the server does not answer, it returns a nil client and settings
// are read straight from the store. Only a malformed URL is an error.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("Redis not configured, settings cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		log.Warn().Err(err).Str("addr", opt.Addr).Msg("Redis unreachable, settings cache disabled")
		return nil, nil
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Dur("settings_ttl", cfg.SettingsCacheTTL).
		Msg("Redis connected")

	return rdb, nil
}
