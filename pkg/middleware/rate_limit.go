package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/pkg/metrics"
	"golang.org/x/time/rate"
)

// per-key limiter store (simple in-memory token-bucket)
var limiterStore sync.Map // map[string]*rate.Limiter

// getLimiter returns (and lazily creates) a token-bucket limiter for the given key
func getLimiter(key string, rps float64, burst int) *rate.Limiter {
	if v, ok := limiterStore.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := limiterStore.LoadOrStore(key, rate.NewLimiter(rate.Limit(rps), burst))
	return v.(*rate.Limiter)
}

func clientKey(c *gin.Context, action string) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return action + ":ip:" + ip
}

// ActionRateLimit limits one shell action per client IP with a token bucket.
// rps = allowed events per second, burst = maximum tokens in bucket.
func ActionRateLimit(action string, rps float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := getLimiter(clientKey(c, action), rps, burst)
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			metrics.ActionRateLimited.WithLabelValues(action).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
