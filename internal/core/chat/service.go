package chat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"recipe-chatbot/internal/pkg/common"

	"go.uber.org/zap"
)

// RecipeProvider 食譜供應商需要提供的查詢
type RecipeProvider interface {
	// SearchRandom 依標籤取得至多一筆隨機食譜，標籤為空表示不過濾
	SearchRandom(ctx context.Context, tags []string) ([]RawRecipe, error)
	// SearchByIngredients 依食材搜尋，結果至少帶有 ID
	SearchByIngredients(ctx context.Context, items []string) ([]IngredientMatch, error)
	// FetchDetails 取得單一食譜的完整資訊
	FetchDetails(ctx context.Context, id RecipeID) (*RawRecipe, error)
}

// Reply 單則訊息的處理結果
type Reply struct {
	Text    string
	Intent  Intent
	Outcome Outcome
	TraceID string
}

// Stats 處理統計
type Stats struct {
	Received       int64 `json:"received"`
	Answered       int64 `json:"answered"`
	ProviderErrors int64 `json:"provider_errors"`
	NoResults      int64 `json:"no_results"`
	Unrecognized   int64 `json:"unrecognized"`
	SpecialCases   int64 `json:"special_cases"`
}

// Service 訊息協調器：分類 → 查詢 → 正規化 → 回覆
type Service struct {
	provider RecipeProvider

	// 確保訊息一次只處理一則
	mu sync.Mutex

	received       int64
	answered       int64
	providerErrors int64
	noResults      int64
	unrecognized   int64
	specialCases   int64
}

// NewService 創建訊息協調器
func NewService(provider RecipeProvider) *Service {
	return &Service{provider: provider}
}

// Handle 處理單則訊息並返回回覆，永不失敗
func (s *Service) Handle(ctx context.Context, msg IncomingMessage) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	atomic.AddInt64(&s.received, 1)

	traceID := common.TraceID(ctx)
	if traceID == "" {
		traceID = common.GenerateUUID()
		ctx = common.WithTraceID(ctx, traceID)
	}

	start := time.Now()
	intent := Classify(msg.Text)

	common.LogDebug("Message classified",
		zap.String("trace_id", traceID),
		zap.Int64("chat_id", msg.ChatID),
		zap.String("intent", intent.Kind.String()),
		zap.Strings("tags", intent.Tags),
		zap.Strings("items", intent.Items),
	)

	outcome := s.resolveSafely(ctx, intent)
	s.count(outcome)

	reply := Reply{
		Text:    FormatReply(outcome, msg.SenderName),
		Intent:  intent,
		Outcome: outcome,
		TraceID: traceID,
	}

	common.LogInfo("Message answered",
		zap.String("trace_id", traceID),
		zap.Int64("chat_id", msg.ChatID),
		zap.String("intent", intent.Kind.String()),
		zap.String("outcome", outcome.Kind.String()),
		zap.Duration("latency", time.Since(start)),
	)

	return reply
}

// resolveSafely 在訊息邊界攔截 panic，避免中斷主迴圈
func (s *Service) resolveSafely(ctx context.Context, intent Intent) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			common.LogError("Panic recovered while resolving message",
				zap.Any("error", r),
				zap.String("trace_id", common.TraceID(ctx)),
			)
			outcome = Outcome{Kind: OutcomeProviderError}
		}
	}()
	return s.Resolve(ctx, intent)
}

// Resolve 依意圖調用供應商並得出結果
func (s *Service) Resolve(ctx context.Context, intent Intent) Outcome {
	switch intent.Kind {
	case IntentRandomRecipe:
		return s.resolveRandom(ctx, intent.Tags)
	case IntentInventory:
		return s.resolveInventory(ctx, intent.Items)
	default:
		return Outcome{Kind: OutcomeUnrecognized}
	}
}

func (s *Service) resolveRandom(ctx context.Context, tags []string) Outcome {
	recipes, err := s.provider.SearchRandom(ctx, tags)
	if err != nil {
		return providerFailure(ctx, "random search", err)
	}
	if len(recipes) == 0 {
		return Outcome{Kind: OutcomeNoResults, Variant: VariantRandom}
	}

	summary, err := Normalize(&recipes[0])
	if err != nil {
		return providerFailure(ctx, "normalize random recipe", err)
	}
	return Outcome{Kind: OutcomeSuccess, Variant: VariantRandom, Recipe: summary}
}

func (s *Service) resolveInventory(ctx context.Context, items []string) Outcome {
	// 特殊情況必須在呼叫供應商之前檢查
	if text, hit := CheckBlocklist(items); hit {
		return Outcome{Kind: OutcomeSpecialCase, Text: text}
	}
	if len(items) == 0 {
		return Outcome{Kind: OutcomeNoResults, Variant: VariantIngredients}
	}

	matches, err := s.provider.SearchByIngredients(ctx, items)
	if err != nil {
		return providerFailure(ctx, "ingredient search", err)
	}
	if len(matches) == 0 {
		return Outcome{Kind: OutcomeNoResults, Variant: VariantIngredients}
	}

	top := matches[0]
	if top.ID == "" {
		return providerFailure(ctx, "ingredient search", common.ErrMissingField.Wrap("match is missing id", nil))
	}

	raw, err := s.provider.FetchDetails(ctx, top.ID)
	if err != nil {
		return providerFailure(ctx, fmt.Sprintf("fetch details %s", top.ID), err)
	}

	summary, err := Normalize(raw)
	if err != nil {
		return providerFailure(ctx, "normalize recipe details", err)
	}
	return Outcome{Kind: OutcomeSuccess, Variant: VariantIngredients, Recipe: summary}
}

// providerFailure 記錄警告並轉為 ProviderError
func providerFailure(ctx context.Context, step string, err error) Outcome {
	common.LogWarn("Recipe provider failed",
		zap.String("step", step),
		zap.String("trace_id", common.TraceID(ctx)),
		zap.Error(err),
	)
	return Outcome{Kind: OutcomeProviderError}
}

func (s *Service) count(outcome Outcome) {
	atomic.AddInt64(&s.answered, 1)
	switch outcome.Kind {
	case OutcomeProviderError:
		atomic.AddInt64(&s.providerErrors, 1)
	case OutcomeNoResults:
		atomic.AddInt64(&s.noResults, 1)
	case OutcomeUnrecognized:
		atomic.AddInt64(&s.unrecognized, 1)
	case OutcomeSpecialCase:
		atomic.AddInt64(&s.specialCases, 1)
	}
}

// Stats 獲取處理統計
func (s *Service) Stats() Stats {
	return Stats{
		Received:       atomic.LoadInt64(&s.received),
		Answered:       atomic.LoadInt64(&s.answered),
		ProviderErrors: atomic.LoadInt64(&s.providerErrors),
		NoResults:      atomic.LoadInt64(&s.noResults),
		Unrecognized:   atomic.LoadInt64(&s.unrecognized),
		SpecialCases:   atomic.LoadInt64(&s.specialCases),
	}
}
