package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ztas-io/analytics-api/internal/service"
	"go.uber.org/zap"
)

// RateLimitMiddleware enforces a fixed window per client IP for one named
// endpoint. When the limiter's store is unreachable the request is admitted;
// availability wins over strictness here.
func RateLimitMiddleware(limiter *service.RateLimiter, logger *zap.Logger, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.Allow(c.Request.Context(), name, c.ClientIP(), limit, window)
		if err != nil {
			logger.Warn("rate limiter unavailable",
				zap.String("endpoint", name),
				zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Retry-After", strconv.Itoa(retryAfter))
			rateLimited(c, retryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}
