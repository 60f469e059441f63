package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"recipe-chatbot/internal/pkg/common"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Spoonacular SpoonacularConfig `mapstructure:"spoonacular"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Dedup       DedupConfig       `mapstructure:"dedup"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// SpoonacularConfig 食譜供應商配置
type SpoonacularConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// TelegramConfig Telegram 機器人配置
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	PollTimeout int    `mapstructure:"poll_timeout"`
	Debug       bool   `mapstructure:"debug"`
}

// DedupConfig 重複更新抑制配置
type DedupConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Backend    string        `mapstructure:"backend"`
	Window     time.Duration `mapstructure:"window"`
	MaxEntries int           `mapstructure:"max_entries"`
	RedisAddr  string        `mapstructure:"redis_addr"`
	RedisDB    int           `mapstructure:"redis_db"`
}

// RateLimitConfig 供應商調用速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為可選，缺少時只依賴環境變數
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("spoonacular.api_key", "SPOONACULAR_API_KEY")
	_ = v.BindEnv("spoonacular.base_url", "SPOONACULAR_BASE_URL")
	_ = v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.debug", "TELEGRAM_DEBUG")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.enabled", "HTTP_ENABLED")
	_ = v.BindEnv("dedup.enabled", "DEDUP_ENABLED")
	_ = v.BindEnv("dedup.backend", "DEDUP_BACKEND")
	_ = v.BindEnv("dedup.window", "DEDUP_WINDOW")
	_ = v.BindEnv("dedup.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	fmt.Println("Loading configuration",
		"spoonacular_api_key:", common.MaskSecret(v.GetString("spoonacular.api_key")),
		"telegram_bot_token:", common.MaskSecret(v.GetString("telegram.token")),
	)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, common.ErrInvalidConfig.Wrap("invalid config", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-chatbot")

	// 伺服器設定
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 64*1024)

	// Spoonacular 設定
	v.SetDefault("spoonacular.base_url", "https://api.spoonacular.com")
	v.SetDefault("spoonacular.timeout", "15s")
	v.SetDefault("spoonacular.retry_count", 0)

	// Telegram 設定
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("telegram.debug", false)

	// 去重設定
	v.SetDefault("dedup.enabled", true)
	v.SetDefault("dedup.backend", "memory")
	v.SetDefault("dedup.window", "24h")
	v.SetDefault("dedup.max_entries", 10000)
	v.SetDefault("dedup.redis_addr", "localhost:6379")
	v.SetDefault("dedup.redis_db", 0)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("log_level", "info")
}

// Validate 驗證設定
func Validate(config *Config) error {
	// 必要金鑰
	if strings.TrimSpace(config.Spoonacular.APIKey) == "" {
		return fmt.Errorf("SPOONACULAR_API_KEY not set")
	}
	if strings.TrimSpace(config.Telegram.Token) == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	if config.Spoonacular.BaseURL == "" {
		return fmt.Errorf("spoonacular base url is required")
	}
	if config.Spoonacular.RetryCount < 0 {
		return fmt.Errorf("invalid spoonacular retry count")
	}

	// 驗證伺服器設定
	if config.Server.Enabled && (config.Server.Port <= 0 || config.Server.Port > 65535) {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// 驗證去重設定
	if config.Dedup.Enabled {
		if config.Dedup.Window <= 0 {
			return fmt.Errorf("invalid dedup window")
		}
		if config.Dedup.MaxEntries < 0 {
			return fmt.Errorf("invalid dedup max entries")
		}
		switch config.Dedup.Backend {
		case "memory":
		case "redis":
			if config.Dedup.RedisAddr == "" {
				return fmt.Errorf("redis address is required for redis dedup backend")
			}
		default:
			return fmt.Errorf("unknown dedup backend: %q", config.Dedup.Backend)
		}
	}

	// 驗證限流設定
	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("invalid rate limit requests")
		}
		if config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window")
		}
	}

	return nil
}
