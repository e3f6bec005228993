package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"expert-backend/internal/delivery/http/response"
	"expert-backend/internal/domain"
	"expert-backend/pkg/logger"
	"expert-backend/pkg/metrics"
	"expert-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Name labels the limiter in metrics and logs
	Name string
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis
	KeyPrefix string
	// Whether to fail closed (reject) when Redis is unavailable
	FailClosed bool
}

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: [current_count, ttl_remaining]
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

const localSweepInterval = 5 * time.Minute

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// InternalRateLimitConfig limits the /internal identity endpoints per IP.
func InternalRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Name:       "internal",
		Limit:      limit,
		Window:     window,
		KeyPrefix:  "rl:internal:",
		FailClosed: false, // Fail open by default for availability
		KeyFunc:    clientIPKey,
	}
}

// WebhookRateLimitConfig limits auth provider webhook deliveries per IP.
func WebhookRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Name:       "webhook",
		Limit:      limit,
		Window:     window,
		KeyPrefix:  "rl:webhook:",
		FailClosed: false,
		KeyFunc:    clientIPKey,
	}
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter is a fixed window counter in Redis with a token bucket per key
// in process when Redis is absent or failing.
type rateLimiter struct {
	client *goredis.Client
	config RateLimitConfig

	mu        sync.Mutex
	local     map[string]*localEntry
	lastSweep time.Time
}

// RateLimitMiddleware creates a rate limiting middleware with the given config.
// A nil client selects the in-process limiter.
func RateLimitMiddleware(client *goredis.Client, config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = clientIPKey
	}
	if config.Limit < 1 {
		config.Limit = 1
	}
	if config.Window < time.Second {
		config.Window = time.Second
	}
	rl := &rateLimiter{
		client:    client,
		config:    config,
		local:     make(map[string]*localEntry),
		lastSweep: time.Now(),
	}
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	key := rl.config.KeyFunc(c)

	allowed, remaining, resetAt, err := rl.check(c.Request.Context(), key)
	if err != nil {
		if rl.config.FailClosed {
			logger.Log.Error("Rate limiter unavailable", "limiter", rl.config.Name, "error", err)
			response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
			c.Abort()
			return
		}
		logger.Log.Warn("Redis rate limit failed, using in-process limiter", "limiter", rl.config.Name, "error", err)
		allowed, remaining, resetAt = rl.checkLocal(key, time.Now())
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

	if !allowed {
		retryAfter := int(math.Ceil(time.Until(resetAt).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))

		metrics.RateLimitRejected.WithLabelValues(rl.config.Name).Inc()
		security.DefaultLogger().LogRateLimitTriggered(
			c.Request.Context(),
			c.ClientIP(),
			c.Request.UserAgent(),
			c.GetString(string(domain.KeyRequestID)),
			c.FullPath(),
		)

		response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
		c.Abort()
		return
	}

	c.Next()
}

func (rl *rateLimiter) check(ctx context.Context, key string) (bool, int, time.Time, error) {
	if rl.client == nil {
		allowed, remaining, resetAt := rl.checkLocal(key, time.Now())
		return allowed, remaining, resetAt, nil
	}

	count, resetAt, err := rl.checkRedis(ctx, rl.config.KeyPrefix+key)
	if err != nil {
		return false, 0, time.Time{}, err
	}
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.config.Limit, remaining, resetAt, nil
}

// checkRedis checks rate limit using Redis with atomic Lua script
func (rl *rateLimiter) checkRedis(ctx context.Context, key string) (int, time.Time, error) {
	ttlSeconds := int(rl.config.Window.Seconds())

	result, err := rl.client.Eval(ctx, rateLimitLuaScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

// checkLocal refills Limit tokens per Window with a burst of Limit.
func (rl *rateLimiter) checkLocal(key string, now time.Time) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > localSweepInterval {
		for k, e := range rl.local {
			if now.Sub(e.lastSeen) > rl.config.Window {
				delete(rl.local, k)
			}
		}
		rl.lastSweep = now
	}

	entry, ok := rl.local[key]
	if !ok {
		every := rl.config.Window / time.Duration(rl.config.Limit)
		entry = &localEntry{limiter: rate.NewLimiter(rate.Every(every), rl.config.Limit)}
		rl.local[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, now.Add(rl.config.Window)
}
