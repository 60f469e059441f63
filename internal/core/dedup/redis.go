package dedup

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"recipe-chatbot/internal/infrastructure/config"
	"recipe-chatbot/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisKeyPrefix = "recipe-chatbot:update:"

// RedisStore 以 Redis SETNX 實作的去重存儲，可跨行程共用
type RedisStore struct {
	client *redis.Client
	window time.Duration

	duplicates int64
}

// NewRedisStore 連線 Redis 並建立去重存儲
func NewRedisStore(ctx context.Context, cfg config.DedupConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		DB:          cfg.RedisDB,
		DialTimeout: 3 * time.Second,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("去重存儲已初始化",
		zap.String("backend", "redis"),
		zap.String("addr", cfg.RedisAddr),
		zap.Duration("存活時間", cfg.Window),
	)

	return NewRedisStoreWithClient(client, cfg.Window), nil
}

// NewRedisStoreWithClient 使用既有的 Redis 客戶端
func NewRedisStoreWithClient(client *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{client: client, window: window}
}

// MarkIfNew 實作 Store
func (s *RedisStore) MarkIfNew(ctx context.Context, updateID int) (bool, error) {
	ok, err := s.client.SetNX(ctx, generateKey(updateID), 1, s.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark update: %w", err)
	}
	if !ok {
		atomic.AddInt64(&s.duplicates, 1)
	}
	return ok, nil
}

// Stats 實作 Store，鍵數由 Redis 管理因此不回報
func (s *RedisStore) Stats() Stats {
	return Stats{
		Backend:    "redis",
		Duplicates: atomic.LoadInt64(&s.duplicates),
	}
}

// Close 關閉 Redis 連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// generateKey 生成去重鍵
func generateKey(updateID int) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, updateID)
}
