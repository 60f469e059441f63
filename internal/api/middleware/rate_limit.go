package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"recipe-chatbot/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenBucket 可查詢剩餘令牌的限流器，*rate.Limiter 即實作
type TokenBucket interface {
	Tokens() float64
}

// RateLimit 限流中間件，桶內沒有令牌時返回 429。
// 只查詢不消耗，令牌由實際的供應商調用取用。
func RateLimit(bucket TokenBucket, retryAfter time.Duration) gin.HandlerFunc {
	retrySeconds := int(math.Ceil(retryAfter.Seconds()))
	return func(c *gin.Context) {
		if bucket.Tokens() < 1 {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", retrySeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.ToResponse(false))
			return
		}

		c.Next()
	}
}
