package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"recipe-chatbot/internal/core/chat"
	"recipe-chatbot/internal/core/dedup"
	"recipe-chatbot/internal/infrastructure/config"
	"recipe-chatbot/internal/pkg/common"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	maxMessageLen  = 4000
	maxSendRetries = 3
	fallbackName   = "there"
)

const usageText = `I can find recipes for you. Try one of these:

Give me a random recipe that is vegetarian.
My fridge contains eggs, potato and paprika.

Supported tags: %s.`

// botAPI 機器人所需的 Telegram API 子集，*tgbotapi.BotAPI 即實作
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MessageHandler 處理單則訊息
type MessageHandler interface {
	Handle(ctx context.Context, msg chat.IncomingMessage) chat.Reply
}

// Stats 傳輸層統計
type Stats struct {
	Updates      int64 `json:"updates"`
	Ignored      int64 `json:"ignored"`
	Duplicates   int64 `json:"duplicates"`
	Commands     int64 `json:"commands"`
	Replied      int64 `json:"replied"`
	SendFailures int64 `json:"send_failures"`
}

// Bot Telegram 長輪詢機器人
type Bot struct {
	api         botAPI
	handler     MessageHandler
	store       dedup.Store
	pollTimeout int

	// sleep 可在測試中替換
	sleep func(ctx context.Context, d time.Duration) error

	updates      int64
	ignored      int64
	duplicates   int64
	commands     int64
	replied      int64
	sendFailures int64
}

// NewBot 連線 Telegram 並建立機器人
func NewBot(cfg config.TelegramConfig, handler MessageHandler, store dedup.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	api.Debug = cfg.Debug

	common.LogInfo("Telegram bot connected",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return newBot(api, handler, store, cfg.PollTimeout), nil
}

func newBot(api botAPI, handler MessageHandler, store dedup.Store, pollTimeout int) *Bot {
	if store == nil {
		store = dedup.Disabled()
	}
	return &Bot{
		api:         api,
		handler:     handler,
		store:       store,
		pollTimeout: pollTimeout,
		sleep:       sleepContext,
	}
}

// Run 消費更新直到 ctx 結束，更新逐一依序處理
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	common.LogInfo("Telegram polling started", zap.Int("poll_timeout", b.pollTimeout))

	for {
		select {
		case <-ctx.Done():
			common.LogInfo("Telegram polling stopping")
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	atomic.AddInt64(&b.updates, 1)

	msg := update.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		// 編輯、貼圖、照片等非文字更新
		atomic.AddInt64(&b.ignored, 1)
		return
	}

	fresh, err := b.store.MarkIfNew(ctx, update.UpdateID)
	if err != nil {
		// 存儲故障時寧可重複回覆也不漏回
		common.LogWarn("Dedup store failed, processing update anyway",
			zap.Int("update_id", update.UpdateID),
			zap.Error(err),
		)
	} else if !fresh {
		atomic.AddInt64(&b.duplicates, 1)
		common.LogDebug("Duplicate update skipped", zap.Int("update_id", update.UpdateID))
		return
	}

	traceID := common.GenerateUUID()
	ctx = common.WithTraceID(ctx, traceID)

	if msg.IsCommand() && b.handleCommand(ctx, msg) {
		return
	}

	common.LogDebug("Telegram message received",
		zap.String("trace_id", traceID),
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int("text_len", len(msg.Text)),
	)

	typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
	_, _ = b.api.Request(typing)

	reply := b.handler.Handle(ctx, chat.IncomingMessage{
		SenderName: senderName(msg),
		Text:       msg.Text,
		ChatID:     msg.Chat.ID,
		MessageID:  msg.MessageID,
		UpdateID:   update.UpdateID,
	})

	if b.sendMessage(ctx, msg.Chat.ID, msg.MessageID, reply.Text) {
		atomic.AddInt64(&b.replied, 1)
	}
}

// handleCommand 處理 /start 與 /help，其他命令交給分類器
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) bool {
	switch msg.Command() {
	case "start", "help":
		atomic.AddInt64(&b.commands, 1)
		text := fmt.Sprintf("Hello %s! ", senderName(msg)) + fmt.Sprintf(usageText, strings.Join(chat.TagVocabulary, ", "))
		b.sendMessage(ctx, msg.Chat.ID, msg.MessageID, text)
		return true
	default:
		return false
	}
}

func senderName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return fallbackName
	}
	if name := strings.TrimSpace(msg.From.FirstName); name != "" {
		return name
	}
	if name := strings.TrimSpace(msg.From.UserName); name != "" {
		return name
	}
	return fallbackName
}

// sendMessage 分段發送，第一段回覆原訊息；全部成功時返回 true
func (b *Bot) sendMessage(ctx context.Context, chatID int64, replyTo int, text string) bool {
	ok := true
	for i, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == 0 {
			msg.ReplyToMessageID = replyTo
		}
		if err := b.sendChunk(ctx, msg); err != nil {
			atomic.AddInt64(&b.sendFailures, 1)
			common.LogError("Telegram send failed",
				zap.Int64("chat_id", chatID),
				zap.String("trace_id", common.TraceID(ctx)),
				zap.Error(err),
			)
			ok = false
			break
		}
	}
	return ok
}

// sendChunk 發送單段訊息，429 與暫時性錯誤會退避重試
func (b *Bot) sendChunk(ctx context.Context, msg tgbotapi.MessageConfig) error {
	var err error
	for attempt := 0; attempt <= maxSendRetries; attempt++ {
		if _, err = b.api.Send(msg); err == nil {
			return nil
		}

		backoff, retry := retryDelay(err, attempt)
		if !retry || attempt == maxSendRetries {
			return err
		}

		common.LogWarn("Telegram send error, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
		)
		if serr := b.sleep(ctx, backoff); serr != nil {
			return serr
		}
	}
	return err
}

// retryDelay 判斷錯誤是否可重試以及等待時間
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			if apiErr.RetryAfter > 0 {
				return time.Duration(apiErr.RetryAfter) * time.Second, true
			}
			return time.Duration(attempt+1) * 3 * time.Second, true
		}
		// 其他 API 錯誤（封鎖、聊天不存在等）重試無用
		if apiErr.Code >= 400 && apiErr.Code < 500 {
			return 0, false
		}
	}
	return time.Duration(attempt+1) * time.Second, true
}

// splitMessage 依長度上限切分，優先在換行處切，不切斷 UTF-8 字元
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxLen {
		cut := strings.LastIndex(text[:maxLen], "\n")
		if cut < maxLen/2 {
			cut = maxLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats 獲取傳輸層統計
func (b *Bot) Stats() Stats {
	return Stats{
		Updates:      atomic.LoadInt64(&b.updates),
		Ignored:      atomic.LoadInt64(&b.ignored),
		Duplicates:   atomic.LoadInt64(&b.duplicates),
		Commands:     atomic.LoadInt64(&b.commands),
		Replied:      atomic.LoadInt64(&b.replied),
		SendFailures: atomic.LoadInt64(&b.sendFailures),
	}
}
