package dedup

import (
	"context"
	"sync"
	"time"

	"recipe-chatbot/internal/pkg/common"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const defaultMaxEntries = 10000

// MemoryStore 行程內的去重存儲，條目在 window 後過期，滿額時淘汰最舊的
type MemoryStore struct {
	// 讓查詢與寫入成為單一操作
	mu sync.Mutex

	seen       *expirable.LRU[int, struct{}]
	maxEntries int
	duplicates int64
}

// NewMemoryStore 創建記憶體去重存儲
func NewMemoryStore(window time.Duration, maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	s := &MemoryStore{
		seen:       expirable.NewLRU[int, struct{}](maxEntries, nil, window),
		maxEntries: maxEntries,
	}

	common.LogInfo("去重存儲已初始化",
		zap.String("backend", "memory"),
		zap.Duration("存活時間", window),
		zap.Int("最大容量", maxEntries),
	)

	return s
}

// MarkIfNew 實作 Store
func (s *MemoryStore) MarkIfNew(_ context.Context, updateID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get 會略過已過期但尚未清理的條目，Contains 不會
	if _, ok := s.seen.Get(updateID); ok {
		s.duplicates++
		return false, nil
	}

	s.seen.Add(updateID, struct{}{})
	return true, nil
}

// Stats 實作 Store
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Backend:    "memory",
		Size:       s.seen.Len(),
		MaxSize:    s.maxEntries,
		Duplicates: s.duplicates,
	}
}

// Close 清空存儲
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen.Purge()
	common.LogInfo("去重存儲已關閉", zap.Int64("重複次數", s.duplicates))
	return nil
}
