package middleware

import (
	"github.com/haierkeys/fast-qr-history-sync/pkg/app"
	"github.com/haierkeys/fast-qr-history-sync/pkg/code"
	"github.com/haierkeys/fast-qr-history-sync/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter creates rate limiting middleware
// RateLimiter 创建限流中间件，令牌耗尽时返回 429
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.Key(c)
		if bucket, ok := l.GetBucket(key); ok {
			if bucket.TakeAvailable(1) == 0 {
				app.NewResponse(c).ToResponse(code.ErrorTooManyRequests)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
