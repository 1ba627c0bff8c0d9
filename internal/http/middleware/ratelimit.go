package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type windowInfo struct {
	start time.Time
	count int
}

var memMu sync.Mutex
var memWindows = make(map[string]*windowInfo)

// memoryAllow is a fixed-window counter shared by the in-memory limiter and
// the Redis limiter's fallback path.
func memoryAllow(key string, maxRequests int, window time.Duration) bool {
	memMu.Lock()
	defer memMu.Unlock()

	now := time.Now()
	w, ok := memWindows[key]
	if !ok || now.Sub(w.start) > window {
		memWindows[key] = &windowInfo{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= maxRequests
}

// MemoryRateLimit blocks clients that send more than maxRequests per window,
// keyed by client IP. Used directly in tests and as the no-Redis fallback.
func MemoryRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !memoryAllow("ip:"+c.ClientIP(), maxRequests, window) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
