package ratelimit

import (
	"context"
	"errors"
	"strings"

	"github.com/agrilink/agrilink/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyIngestDevice = "agrilink:ingest:device:"

// IngestLimiter throttles sensor submissions per device identity.
// A nil limiter allows everything.
type IngestLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewIngestLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*IngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.IngestRate <= 0 || limitCfg.IngestBurst <= 0 {
		return nil, errors.New("ingest rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return newIngestLimiter(client, limitCfg.IngestRate, limitCfg.IngestBurst), nil
}

func newIngestLimiter(client redis.Scripter, rate float64, burst int) *IngestLimiter {
	return &IngestLimiter{bucket: NewTokenBucket(client), rate: rate, burst: burst}
}

func (l *IngestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *IngestLimiter) AllowDevice(ctx context.Context, deviceKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, keyIngestDevice+strings.TrimSpace(deviceKey), l.rate, l.burst)
}
