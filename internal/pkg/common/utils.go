package common

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type traceIDKey struct{}

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WithTraceID 將追蹤 ID 放入 context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID 取出 context 中的追蹤 ID，沒有時回傳空字串
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// JoinCSV 以逗號串接字串切片
func JoinCSV(items []string) string {
	return strings.Join(items, ",")
}

// MaskSecret 遮罩金鑰，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
