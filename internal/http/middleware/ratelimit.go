package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitPrefix = "chatcore:ratelimit"

// NewRateLimiter allows limit requests per period and client IP. Counters
// live in Redis when a client is given so replicas share them, and in
// process memory otherwise.
func NewRateLimiter(limit int64, period time.Duration, client *redis.Client) (*limiter.Limiter, error) {
	if limit <= 0 || period <= 0 {
		return nil, fmt.Errorf("middleware: rate limit must be positive, got %d per %s", limit, period)
	}

	var (
		store limiter.Store
		err   error
	)
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, fmt.Errorf("middleware: rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: 5 * time.Minute,
		})
	}
	return limiter.New(store, limiter.Rate{Period: period, Limit: limit}), nil
}

// RateLimit rejects requests over the limiter's rate with 429 Too Many
// Requests and sets the X-RateLimit-* headers on every response.
func RateLimit(l *limiter.Limiter) func(http.Handler) http.Handler {
	return stdlib.NewMiddleware(l).Handler
}
