package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/clientpulse/clientpulse/internal/logger"
)

// RateLimitService bounds how often a caller may hit the webhook endpoint
type RateLimitService interface {
	// Allow increments the counter for key and reports whether the caller
	// is still under the limit for the window
	Allow(ctx context.Context, key string) (bool, error)
}

// Config for the Redis-backed limiter
type Config struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Requests int
	Window   time.Duration
}

type redisRateLimitService struct {
	client   *redis.Client
	log      logger.Logger
	requests int
	window   time.Duration
}

// NewRateLimitService creates a limiter. When disabled it returns a noop
// implementation that allows everything.
func NewRateLimitService(cfg Config, log logger.Logger) (RateLimitService, error) {
	if !cfg.Enabled {
		log.Info(context.Background(), "rate limiting disabled", nil)
		return &noopRateLimitService{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info(context.Background(), "rate limiting service initialized", map[string]interface{}{
		"requests": cfg.Requests,
		"window":   cfg.Window.String(),
	})

	return &redisRateLimitService{
		client:   client,
		log:      log,
		requests: cfg.Requests,
		window:   cfg.Window,
	}, nil
}

func (s *redisRateLimitService) Allow(ctx context.Context, key string) (bool, error) {
	counterKey := fmt.Sprintf("ratelimit:%s", key)

	pipeline := s.client.Pipeline()
	incrCmd := pipeline.Incr(ctx, counterKey)
	pipeline.Expire(ctx, counterKey, s.window)
	if _, err := pipeline.Exec(ctx); err != nil {
		s.log.Error(ctx, "failed to increment rate limit counter", err, map[string]interface{}{
			"key": key,
		})
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	count := incrCmd.Val()
	if count > int64(s.requests) {
		s.log.Warn(ctx, "rate limit exceeded", map[string]interface{}{
			"key":   key,
			"count": count,
			"limit": s.requests,
		})
		return false, nil
	}
	return true, nil
}

type noopRateLimitService struct{}

func (n *noopRateLimitService) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}
