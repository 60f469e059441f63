package message

import (
	"net/http"
	"strings"

	"recipe-chatbot/internal/core/chat"
	"recipe-chatbot/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Request 測試訊息請求
type Request struct {
	SenderName string `json:"sender_name"`
	Text       string `json:"text" binding:"required"`
}

// Response 測試訊息響應
type Response struct {
	Reply   string `json:"reply"`
	Intent  string `json:"intent"`
	TraceID string `json:"trace_id"`
}

// Handler 訊息處理器，讓不經 Telegram 也能走完整流程
type Handler struct {
	service *chat.Service
	debug   bool
}

// NewHandler 創建訊息處理器
func NewHandler(service *chat.Service, debug bool) *Handler {
	return &Handler{service: service, debug: debug}
}

// HandleMessage 處理 POST /api/v1/messages
func (h *Handler) HandleMessage(c *gin.Context) {
	requestID := requestid.Get(c)

	if h.service == nil {
		common.LogError("Chat service not available", zap.String("request_id", requestID))
		c.JSON(http.StatusInternalServerError, common.ErrInternalError.ToResponse(false))
		return
	}

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("Invalid message request",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, common.ErrInvalidRequest.Wrap("invalid request format", err).ToResponse(h.debug))
		return
	}

	name := strings.TrimSpace(req.SenderName)
	if name == "" {
		name = "there"
	}

	ctx := common.WithTraceID(c.Request.Context(), requestID)
	reply := h.service.Handle(ctx, chat.IncomingMessage{
		SenderName: name,
		Text:       req.Text,
	})

	c.JSON(http.StatusOK, Response{
		Reply:   reply.Text,
		Intent:  reply.Intent.Kind.String(),
		TraceID: reply.TraceID,
	})
}
