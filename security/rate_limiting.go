package security

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles booking endpoints with a fixed redis window per
// identity. Authenticated requests are limited per user id, anonymous ones
// per client IP.
type RateLimiter struct {
	redis  *redis.Client
	max    int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		max:    max,
		window: window,
	}
}

// Middleware fails open: if redis is down, requests pass through rather than
// taking the booking API down with it.
func (r *RateLimiter) Middleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if r.redis == nil {
			return e.Next()
		}

		identity := e.RealIP()
		if e.Auth != nil {
			identity = fmt.Sprintf("user:%s", e.Auth.Id)
		}

		ctx := e.Request.Context()
		key := fmt.Sprintf("ratelimit:booking:%s", identity)

		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			return e.Next()
		}
		if count == 1 {
			r.redis.Expire(ctx, key, r.window)
		}

		if count > int64(r.max) {
			return apis.NewApiError(429, "Rate limit exceeded. Please try again later.", map[string]any{
				"code": "rate_limited",
			})
		}

		return e.Next()
	}
}
