package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-chatbot/internal/core/chat"
	"recipe-chatbot/internal/core/dedup"
	"recipe-chatbot/internal/infrastructure/config"
	"recipe-chatbot/internal/pkg/common"
	"recipe-chatbot/internal/transport/telegram"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// gin context 中的鍵
const (
	ConfigKey      = "config"
	ChatServiceKey = "chat_service"
	TransportKey   = "transport"
	DedupKey       = "dedup"
	ReadyKey       = "ready"
)

// TransportStats 提供傳輸層統計
type TransportStats interface {
	Stats() telegram.Stats
}

// DedupStats 提供去重存儲統計
type DedupStats interface {
	Stats() dedup.Stats
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Messages  *chat.Stats            `json:"messages,omitempty"`
	Telegram  *telegram.Stats        `json:"telegram,omitempty"`
	Dedup     *dedup.Stats           `json:"dedup,omitempty"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	cfg, ok := c.Value(ConfigKey).(*config.Config)
	if !ok {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, common.ErrInternalError.ToResponse(false))
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if svc, ok := c.Value(ChatServiceKey).(*chat.Service); ok && svc != nil {
		stats := svc.Stats()
		response.Messages = &stats
	}
	if transport, ok := c.Value(TransportKey).(TransportStats); ok {
		stats := transport.Stats()
		response.Telegram = &stats
	}
	if store, ok := c.Value(DedupKey).(DedupStats); ok {
		stats := store.Stats()
		response.Dedup = &stats
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器
func ReadinessCheck(c *gin.Context) {
	if ready, ok := c.Value(ReadyKey).(func() bool); ok && !ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
