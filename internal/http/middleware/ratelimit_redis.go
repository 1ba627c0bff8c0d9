package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by the
// middleware. If addr is empty or the ping fails the client stays nil and
// limiting falls back to the in-memory window.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient = nil
	}
}

// redisAllow runs a fixed window via INCR/EXPIRE. The bool result is
// (allowed, redis usable).
func redisAllow(key string, maxRequests int, window time.Duration) (bool, bool) {
	if redisClient == nil {
		return true, false
	}
	ctx := context.Background()
	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return true, false
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}
	return val <= int64(maxRequests), true
}

// RedisRateLimit limits per client IP, preferring Redis so the window
// survives restarts, with the in-memory counter as fallback.
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := c.ClientIP()
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident

		allowed, usedRedis := redisAllow(key, maxRequests, window)
		if !usedRedis {
			allowed = memoryAllow(key, maxRequests, window)
		}

		if !allowed {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

// IdentityRateLimit limits authenticated actions per identity rather than
// per IP. Requires the JWT middleware to have run.
func IdentityRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		identityID, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		key := "id_rl:" + identityID + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		allowed, usedRedis := redisAllow(key, maxRequests, window)
		if !usedRedis {
			allowed = memoryAllow(key, maxRequests, window)
		}

		if !allowed {
			RLBlocked.WithLabelValues("id:" + c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues("id:" + c.FullPath()).Inc()
		c.Next()
	}
}
