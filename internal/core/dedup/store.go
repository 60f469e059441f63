package dedup

import (
	"context"
	"fmt"

	"recipe-chatbot/internal/infrastructure/config"
	"recipe-chatbot/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 記錄已處理的 Telegram update_id
type Store interface {
	// MarkIfNew 第一次看到該 update 時返回 true
	MarkIfNew(ctx context.Context, updateID int) (bool, error)
	Stats() Stats
	Close() error
}

// Stats 去重統計
type Stats struct {
	Backend    string `json:"backend"`
	Size       int    `json:"size,omitempty"`
	MaxSize    int    `json:"max_size,omitempty"`
	Duplicates int64  `json:"duplicates"`
}

// New 依設定建立去重存儲
func New(cfg *config.Config) (Store, error) {
	if !cfg.Dedup.Enabled {
		common.LogInfo("Update deduplication disabled")
		return Disabled(), nil
	}

	switch cfg.Dedup.Backend {
	case "memory":
		return NewMemoryStore(cfg.Dedup.Window, cfg.Dedup.MaxEntries), nil
	case "redis":
		return NewRedisStore(context.Background(), cfg.Dedup)
	default:
		common.LogWarn("Unknown dedup backend", zap.String("backend", cfg.Dedup.Backend))
		return nil, common.ErrInvalidConfig.Wrap(fmt.Sprintf("unknown dedup backend %q", cfg.Dedup.Backend), nil)
	}
}

// Disabled 返回不做去重的存儲，所有 update 都視為新的
func Disabled() Store {
	return noopStore{}
}

type noopStore struct{}

func (noopStore) MarkIfNew(context.Context, int) (bool, error) { return true, nil }

func (noopStore) Stats() Stats { return Stats{Backend: "disabled"} }

func (noopStore) Close() error { return nil }
