package api

import (
	"context"
	"net/http"
	"time"

	"recipe-chatbot/internal/api/handlers/health"
	"recipe-chatbot/internal/api/handlers/message"
	"recipe-chatbot/internal/api/middleware"
	"recipe-chatbot/internal/core/chat"
	"recipe-chatbot/internal/infrastructure/config"
	"recipe-chatbot/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 超時設置
const timeoutDuration = 30 * time.Second

// Dependencies 路由需要的服務
type Dependencies struct {
	Chat *chat.Service
	// Transport 可為 nil（僅 HTTP 模式）
	Transport health.TransportStats
	// Dedup 去重存儲統計，可為 nil
	Dedup health.DedupStats
	// Limiter 與供應商客戶端共用的令牌桶，nil 表示不限流
	Limiter *rate.Limiter
	// Ready 回報機器人主迴圈是否在運行
	Ready func() bool
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 64 << 10
	}
	router.Use(middleware.BodySizeLimit(maxBody))

	// 注入配置與服務，並設置請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set(health.ConfigKey, cfg)
		c.Set(health.ChatServiceKey, deps.Chat)
		if deps.Transport != nil {
			c.Set(health.TransportKey, deps.Transport)
		}
		if deps.Dedup != nil {
			c.Set(health.DedupKey, deps.Dedup)
		}
		if deps.Ready != nil {
			c.Set(health.ReadyKey, deps.Ready)
		}

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrGatewayTimeout.ToResponse(false))
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	v1 := router.Group("/api/v1")
	// 測試端點同樣會消耗供應商額度
	if deps.Limiter != nil {
		v1.Use(middleware.RateLimit(deps.Limiter, tokenInterval(deps.Limiter)))
	}
	{
		handler := message.NewHandler(deps.Chat, cfg.App.Debug)
		v1.POST("/messages", handler.HandleMessage)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("transport_attached", deps.Transport != nil),
		zap.Bool("rate_limited", deps.Limiter != nil),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBody),
	)

	return router
}

// tokenInterval 補充一個令牌所需的時間
func tokenInterval(limiter *rate.Limiter) time.Duration {
	limit := limiter.Limit()
	if limit == rate.Inf || limit <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / float64(limit))
}
