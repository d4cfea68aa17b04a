package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppPort     string `envconfig:"APP_PORT" default:"8080"`
	AppVersion  string `envconfig:"APP_VERSION" default:"dev"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Seoul"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON     bool   `envconfig:"LOG_JSON" default:"false"`
	// AllowedOrigin restricts CORS and websocket origins. Empty allows any.
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN"`

	// postgres | memory
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	APIRateLimit    int           `envconfig:"API_RATE_LIMIT" default:"120"`
	APIRateWindow   time.Duration `envconfig:"API_RATE_WINDOW" default:"1m"`
	AuthRateLimit   int           `envconfig:"AUTH_RATE_LIMIT" default:"10"`
	AuthRateWindow  time.Duration `envconfig:"AUTH_RATE_WINDOW" default:"1m"`
	SubmitRateLimit int           `envconfig:"SUBMIT_RATE_LIMIT" default:"10"`

	// Classification oracle. Without a key the placeholder classifier is used.
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	OracleTimeout time.Duration `envconfig:"ORACLE_TIMEOUT" default:"30s"`

	UploadDir       string `envconfig:"UPLOAD_DIR" default:"uploads/images"`
	UploadURLPrefix string `envconfig:"UPLOAD_URL_PREFIX" default:"/uploads/images"`
	MaxUploadBytes  int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	RewardReport        int64 `envconfig:"REWARD_REPORT" default:"100"`
	RewardQuizCorrect   int64 `envconfig:"REWARD_QUIZ_CORRECT" default:"50"`
	RewardSocialLike    int64 `envconfig:"REWARD_SOCIAL_LIKE" default:"5"`
	RewardSocialComment int64 `envconfig:"REWARD_SOCIAL_COMMENT" default:"10"`
	QuizDailyGate       bool  `envconfig:"REWARD_QUIZ_DAILY_GATE" default:"true"`

	AutoPublishThreshold   int `envconfig:"AUTO_PUBLISH_THRESHOLD" default:"40"`
	VerifiedScamConfidence int `envconfig:"VERIFIED_SCAM_CONFIDENCE" default:"70"`

	TrendingCacheTTL    time.Duration `envconfig:"TRENDING_CACHE_TTL" default:"10m"`
	TrendingRefreshCron string        `envconfig:"TRENDING_REFRESH_CRON" default:"*/10 * * * *"`

	Location *time.Location `envconfig:"-"`
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", c.StorageDriver)
	}

	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	c.Location = loc

	if c.AutoPublishThreshold < 0 || c.AutoPublishThreshold > 100 {
		return fmt.Errorf("AUTO_PUBLISH_THRESHOLD must be within 0..100")
	}
	if c.VerifiedScamConfidence < 0 || c.VerifiedScamConfidence > 100 {
		return fmt.Errorf("VERIFIED_SCAM_CONFIDENCE must be within 0..100")
	}
	if c.RewardReport < 0 || c.RewardQuizCorrect < 0 || c.RewardSocialLike < 0 || c.RewardSocialComment < 0 {
		return fmt.Errorf("reward amounts must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.OracleTimeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must be > 0")
	}
	return nil
}
