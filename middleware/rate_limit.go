package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/colin330smith/callbot-ai-sub000/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit enforces a per-IP fixed window for one endpoint class.
// Rejections carry a Retry-After header computed from the window reset.
func RateLimit(limiter *ratelimit.Limiter, endpoint string, cfg ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if clientIP == "" {
			// Fail open into a shared bucket rather than erroring.
			clientIP = "unknown"
		}

		res := limiter.Check(endpoint+":"+clientIP, cfg)
		if !res.Allowed {
			retryAfter := int(time.Until(res.ResetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			slog.Warn("rate limit exceeded",
				"endpoint", endpoint,
				"client_ip", clientIP,
				"request_id", GetRequestID(c),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}
