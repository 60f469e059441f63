package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"recipe-chatbot/internal/api"
	"recipe-chatbot/internal/core/chat"
	"recipe-chatbot/internal/core/dedup"
	"recipe-chatbot/internal/core/spoonacular"
	"recipe-chatbot/internal/infrastructure/config"
	"recipe-chatbot/internal/pkg/common"
	"recipe-chatbot/internal/transport/telegram"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// 載入設定（含 .env），缺少金鑰時直接結束
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("spoonacular_base_url", cfg.Spoonacular.BaseURL),
		zap.String("dedup_backend", cfg.Dedup.Backend),
		zap.Bool("http_enabled", cfg.Server.Enabled),
	)

	provider := spoonacular.NewClient(cfg)
	defer provider.Close()

	store, err := dedup.New(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize dedup store", zap.Error(err))
	}
	defer store.Close()

	service := chat.NewService(provider)

	bot, err := telegram.NewBot(cfg.Telegram, service, store)
	if err != nil {
		common.LogFatal("Failed to connect to Telegram", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var running atomic.Bool
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		running.Store(true)
		defer running.Store(false)
		if err := bot.Run(ctx); err != nil {
			common.LogError("Telegram polling stopped with error", zap.Error(err))
		}
	}()

	var srv *http.Server
	if cfg.Server.Enabled {
		router := api.SetupRouter(cfg, api.Dependencies{
			Chat:      service,
			Transport: bot,
			Dedup:     store,
			Limiter:   provider.Limiter(),
			Ready:     running.Load,
		})

		srv = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				common.LogFatal("Failed to start server", zap.Error(err))
			}
		}()
	}

	common.LogInfo("啟動應用",
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.Server.Port),
	)

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-botDone:
		common.LogWarn("Telegram update stream closed")
	}

	common.LogInfo("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			common.LogError("Server forced to shutdown", zap.Error(err))
		}
	}

	// 等待目前處理中的訊息回覆完畢
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		common.LogWarn("Telegram polling did not stop in time")
	}

	common.LogInfo("Server exited")
}
