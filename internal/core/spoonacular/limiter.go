package spoonacular

import (
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter 創建令牌桶，window 內最多 requests 次，可一次突發 requests 次
func NewLimiter(requests int, window time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
}
