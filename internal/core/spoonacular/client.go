package spoonacular

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"recipe-chatbot/internal/core/chat"
	"recipe-chatbot/internal/infrastructure/config"
	"recipe-chatbot/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	randomPath      = "/recipes/random"
	findByIngrPath  = "/recipes/findByIngredients"
	informationPath = "/recipes/{id}/information"

	// 錯誤訊息中保留的回應內容長度
	maxErrorBody = 256
)

// Client Spoonacular API 客戶端
type Client struct {
	client  *resty.Client
	limiter *rate.Limiter
}

var _ chat.RecipeProvider = (*Client)(nil)

// randomResponse /recipes/random 的回應
type randomResponse struct {
	Recipes *[]chat.RawRecipe `json:"recipes"`
}

// NewClient 創建 Spoonacular 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Spoonacular.BaseURL).
		SetTimeout(cfg.Spoonacular.Timeout).
		SetRetryCount(cfg.Spoonacular.RetryCount).
		SetHeader("Accept", "application/json").
		SetQueryParam("apiKey", cfg.Spoonacular.APIKey)

	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter = NewLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	common.LogInfo("Spoonacular client initialized",
		zap.String("base_url", cfg.Spoonacular.BaseURL),
		zap.Duration("timeout", cfg.Spoonacular.Timeout),
		zap.Bool("rate_limited", limiter != nil),
	)

	return &Client{
		client:  client,
		limiter: limiter,
	}
}

// SearchRandom 依標籤取得一筆隨機食譜
func (c *Client) SearchRandom(ctx context.Context, tags []string) ([]chat.RawRecipe, error) {
	params := map[string]string{"number": "1"}
	// 沒有標籤時不帶 tags，代表不過濾
	if len(tags) > 0 {
		params["tags"] = common.JoinCSV(tags)
	}

	var out randomResponse
	if err := c.get(ctx, randomPath, params, nil, &out); err != nil {
		return nil, err
	}
	if out.Recipes == nil {
		return nil, common.ErrProviderError.Wrap("random search", common.ErrMissingField.Wrap("response is missing recipes", nil))
	}
	return *out.Recipes, nil
}

// SearchByIngredients 依食材搜尋最符合的一筆食譜
func (c *Client) SearchByIngredients(ctx context.Context, items []string) ([]chat.IngredientMatch, error) {
	params := map[string]string{
		"ingredients": common.JoinCSV(items),
		"number":      "1",
	}

	var out []chat.IngredientMatch
	if err := c.get(ctx, findByIngrPath, params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchDetails 取得食譜完整資訊
func (c *Client) FetchDetails(ctx context.Context, id chat.RecipeID) (*chat.RawRecipe, error) {
	if id == "" {
		return nil, common.ErrProviderError.Wrap("fetch details", errors.New("empty recipe id"))
	}

	var out chat.RawRecipe
	if err := c.get(ctx, informationPath, nil, map[string]string{"id": id.String()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get 發送 GET 請求並解析 JSON，所有失敗都包裝為 ErrProviderError
func (c *Client) get(ctx context.Context, path string, query, pathParams map[string]string, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		common.LogProviderCall(path, time.Since(start), err, common.TraceID(ctx))
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return common.ErrProviderError.Wrap("rate limiter", werr)
		}
	}

	req := c.client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if len(pathParams) > 0 {
		req.SetPathParams(pathParams)
	}

	resp, rerr := req.Get(path)
	if rerr != nil {
		// url.Error 帶有完整 URL（含 apiKey），只保留內層錯誤
		var uerr *url.Error
		if errors.As(rerr, &uerr) {
			rerr = uerr.Err
		}
		return common.ErrProviderError.Wrap("request "+path, rerr)
	}

	if resp.StatusCode() != http.StatusOK {
		return common.ErrProviderError.Wrap(
			fmt.Sprintf("request %s returned status %d", path, resp.StatusCode()),
			errors.New(truncate(resp.String(), maxErrorBody)),
		)
	}

	if derr := common.ParseJSONBytes(resp.Body(), out); derr != nil {
		return common.ErrProviderError.Wrap("decode "+path, derr)
	}
	return nil
}

// Limiter 返回供應商調用共用的令牌桶，未啟用限流時為 nil
func (c *Client) Limiter() *rate.Limiter {
	return c.limiter
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
