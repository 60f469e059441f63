package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-chatbot/internal/core/chat"
	"recipe-chatbot/internal/core/dedup"
	"recipe-chatbot/internal/infrastructure/config"
	"recipe-chatbot/internal/pkg/common"
	"recipe-chatbot/internal/transport/telegram"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type stubProvider struct {
	randomCalls int
}

func strPtr(s string) *string { return &s }

func (p *stubProvider) SearchRandom(context.Context, []string) ([]chat.RawRecipe, error) {
	p.randomCalls++
	return []chat.RawRecipe{{
		ID:        "1",
		Title:     strPtr("Pasta Primavera"),
		Summary:   strPtr("A <b>fresh</b> pasta."),
		SourceURL: strPtr("https://example.com/pasta"),
	}}, nil
}

func (p *stubProvider) SearchByIngredients(context.Context, []string) ([]chat.IngredientMatch, error) {
	return nil, nil
}

func (p *stubProvider) FetchDetails(context.Context, chat.RecipeID) (*chat.RawRecipe, error) {
	return nil, common.ErrNotFound
}

type stubTransport struct{ stats telegram.Stats }

func (s stubTransport) Stats() telegram.Stats { return s.stats }

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Version: "1.2.3", Env: "test"},
		Server: config.ServerConfig{MaxBodyBytes: 1024},
	}
}

func setup(t *testing.T, deps Dependencies) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return SetupRouter(testConfig(), deps)
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostMessage(t *testing.T) {
	provider := &stubProvider{}
	svc := chat.NewService(provider)
	r := setup(t, Dependencies{Chat: svc})

	w := do(r, http.MethodPost, "/api/v1/messages", `{"sender_name":"Ann","text":"Give me a random recipe"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp struct {
		Reply   string `json:"reply"`
		Intent  string `json:"intent"`
		TraceID string `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "random_recipe", resp.Intent)
	assert.True(t, strings.HasPrefix(resp.Reply, "Hello Ann! "))
	assert.Contains(t, resp.Reply, "Pasta Primavera")
	assert.Equal(t, w.Header().Get("X-Request-ID"), resp.TraceID)
	assert.Equal(t, 1, provider.randomCalls)
}

func TestPostMessageDefaultsSenderName(t *testing.T) {
	r := setup(t, Dependencies{Chat: chat.NewService(&stubProvider{})})

	w := do(r, http.MethodPost, "/api/v1/messages", `{"text":"what's up"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"intent":"unrecognized"`)
	assert.Contains(t, w.Body.String(), "Hello there! ")
}

func TestPostMessageInvalid(t *testing.T) {
	r := setup(t, Dependencies{Chat: chat.NewService(&stubProvider{})})

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"text":`},
		{name: "missing text", body: `{"sender_name":"Ann"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp common.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, common.ErrCodeInvalidRequest, resp.Code)
			assert.Empty(t, resp.Details, "details are only exposed in debug mode")
		})
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := setup(t, Dependencies{Chat: chat.NewService(&stubProvider{})})

	big := `{"text":"` + strings.Repeat("a", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", bytes.NewBufferString(big))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealth(t *testing.T) {
	svc := chat.NewService(&stubProvider{})
	svc.Handle(context.Background(), chat.IncomingMessage{SenderName: "Ann", Text: "hello"})

	r := setup(t, Dependencies{
		Chat:      svc,
		Transport: stubTransport{stats: telegram.Stats{Updates: 3, Duplicates: 1}},
	})

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status   string         `json:"status"`
		Version  string         `json:"version"`
		Messages chat.Stats     `json:"messages"`
		Telegram telegram.Stats `json:"telegram"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, int64(1), resp.Messages.Received)
	assert.Equal(t, int64(1), resp.Messages.Unrecognized)
	assert.Equal(t, int64(3), resp.Telegram.Updates)
	assert.Equal(t, int64(1), resp.Telegram.Duplicates)
}

type stubDedup struct{ stats dedup.Stats }

func (s stubDedup) Stats() dedup.Stats { return s.stats }

func TestHealthReportsDedup(t *testing.T) {
	r := setup(t, Dependencies{
		Chat:  chat.NewService(&stubProvider{}),
		Dedup: stubDedup{stats: dedup.Stats{Backend: "memory", Size: 4, MaxSize: 10, Duplicates: 2}},
	})

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Dedup dedup.Stats `json:"dedup"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dedup.Stats{Backend: "memory", Size: 4, MaxSize: 10, Duplicates: 2}, resp.Dedup)
}

func TestHealthWithoutTransport(t *testing.T) {
	r := setup(t, Dependencies{Chat: chat.NewService(&stubProvider{})})

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"telegram"`)
	assert.NotContains(t, w.Body.String(), `"dedup"`)
}

func TestReadiness(t *testing.T) {
	ready := false
	r := setup(t, Dependencies{Ready: func() bool { return ready }})

	w := do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready = true
	w = do(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := setup(t, Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/messages", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMessageWithoutService(t *testing.T) {
	r := setup(t, Dependencies{})

	w := do(r, http.MethodPost, "/api/v1/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMessageRateLimit(t *testing.T) {
	lim := rate.NewLimiter(rate.Every(time.Hour), 1)
	r := setup(t, Dependencies{Chat: chat.NewService(&stubProvider{}), Limiter: lim})

	// 只查詢令牌，不重複扣減
	w := do(r, http.MethodPost, "/api/v1/messages", `{"text":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1.0, lim.Tokens(), 0.01)

	// 供應商調用取走唯一的令牌
	require.True(t, lim.Allow())

	w = do(r, http.MethodPost, "/api/v1/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	// 健康檢查不受限
	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenInterval(t *testing.T) {
	assert.Equal(t, time.Second, tokenInterval(rate.NewLimiter(rate.Inf, 1)))
	assert.Equal(t, 30*time.Second, tokenInterval(rate.NewLimiter(rate.Every(30*time.Second), 2)))
}
