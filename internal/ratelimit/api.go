package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storagedesk/internal/config"
	"go.uber.org/fx"
)

const keyAPIClient = "storagedesk:api:client:%s"

// APILimiter throttles /api requests per client using a Redis token bucket.
// A nil limiter allows everything.
type APILimiter struct {
	bucket *Bucket
	rate   float64
	burst  int
}

func NewAPILimiter(lc fx.Lifecycle, cfg config.Config) (*APILimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.Rate <= 0 || limitCfg.Burst <= 0 {
		return nil, errors.New("api rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
	}

	return newAPILimiter(NewBucket(client), limitCfg.Rate, limitCfg.Burst), nil
}

func newAPILimiter(bucket *Bucket, rate float64, burst int) *APILimiter {
	return &APILimiter{bucket: bucket, rate: rate, burst: burst}
}

func (l *APILimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *APILimiter) Allow(ctx context.Context, client string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Take(ctx, fmt.Sprintf(keyAPIClient, strings.TrimSpace(client)), l.rate, l.burst)
}
