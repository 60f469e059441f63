package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestCustomErrorWrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := ErrProviderError.Wrap("random search", inner)

	assert.Equal(t, "random search: connection refused", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.True(t, errors.Is(err, ErrProviderError))
	assert.False(t, errors.Is(err, ErrMissingField))
	assert.True(t, errors.Is(err, inner))

	// 經 fmt.Errorf 再包一層仍可比對
	outer := fmt.Errorf("handle: %w", err)
	assert.True(t, errors.Is(outer, ErrProviderError))

	var ce *CustomError
	require.True(t, errors.As(outer, &ce))
	assert.Equal(t, ErrCodeProviderError, ce.Code)
}

func TestCustomErrorNested(t *testing.T) {
	err := ErrProviderError.Wrap("invalid recipe", ErrMissingField.Wrap("missing title", nil))
	assert.True(t, errors.Is(err, ErrProviderError))
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Equal(t, "invalid recipe: missing title", err.Error())
}

func TestToResponse(t *testing.T) {
	err := ErrInvalidRequest.Wrap("invalid request format", errors.New("unexpected EOF"))

	resp := err.ToResponse(false)
	assert.Equal(t, ErrCodeInvalidRequest, resp.Code)
	assert.Equal(t, "invalid request format", resp.Message)
	assert.Empty(t, resp.Details)

	assert.Equal(t, "unexpected EOF", err.ToResponse(true).Details)
}

func TestTraceID(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))

	ctx := WithTraceID(context.Background(), "abc")
	assert.Equal(t, "abc", TraceID(ctx))

	id := GenerateUUID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, GenerateUUID())
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "abcd...wxyz", MaskSecret("abcdefghijklmnopqrstuvwxyz"))
}

func TestJoinCSV(t *testing.T) {
	assert.Equal(t, "", JoinCSV(nil))
	assert.Equal(t, "eggs,potato,paprika", JoinCSV([]string{"eggs", "potato", "paprika"}))
}

func TestParseJSONBytes(t *testing.T) {
	var v struct {
		ID interface{} `json:"id"`
	}
	require.NoError(t, ParseJSONBytes([]byte(`{"id": 12}`), &v))
	assert.Error(t, ParseJSONBytes([]byte(`{"id": 12} {"id": 13}`), &v), "trailing data must be rejected")
	assert.Error(t, ParseJSONBytes([]byte(`{"id":`), &v))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestFilterFields(t *testing.T) {
	fields := filterFields([]zap.Field{
		zap.String("api_key", "secret"),
		zap.String("apiKey", "secret"),
		zap.String("telegram_token", "secret"),
		zap.String("endpoint", "/recipes/random"),
	})
	require.Len(t, fields, 1)
	assert.Equal(t, "endpoint", fields[0].Key)
}
