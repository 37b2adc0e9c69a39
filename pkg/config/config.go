package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 所有环境变量只在这里读取
type Config struct {
	// Server
	Port   string
	Env    string // development, staging, production, test
	Server ServerConfig

	// Providers
	Eastmoney EastmoneyConfig
	Sina      SinaConfig
	Tencent   TencentConfig

	// Fetch coordinator
	Fetch FetchConfig

	// Redis (shared rate limiter)
	Redis RedisConfig

	// Kafka (result sink)
	Kafka KafkaConfig

	// Strategy YAML path (empty = built-in default)
	StrategyPath string

	// Scheduled screening
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// ServerConfig holds HTTP server timeouts.
// WriteTimeout must cover a full /api/pick run.
type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// SchedulerConfig holds the tail-session job settings
type SchedulerConfig struct {
	Spec       string // cron with seconds
	MaxRetries int
	RetryDelay time.Duration
	RunTimeout time.Duration
}

// EastmoneyConfig holds Eastmoney endpoint configuration
type EastmoneyConfig struct {
	QuoteURL        string
	KLineURL        string
	AnnouncementURL string
}

// SinaConfig holds Sina endpoint configuration
type SinaConfig struct {
	QuoteURL  string
	SearchURL string
}

// TencentConfig holds Tencent endpoint configuration
type TencentConfig struct {
	MinuteURL string
}

// FetchConfig controls the batch fan-out and per-call limits
type FetchConfig struct {
	BatchSize   int
	Concurrency int
	CallTimeout time.Duration
	RatePerSec  float64
	MaxRetries  int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	Enabled     bool
	KeyPrefix   string
	DialTimeout time.Duration
	PoolSize    int
}

// KafkaConfig holds the result sink configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether a Kafka sink is configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 只有这个函数调用 os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),
		Server: ServerConfig{
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", "3m"),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", "30s"),
		},

		Eastmoney: EastmoneyConfig{
			QuoteURL:        getEnv("EASTMONEY_QUOTE_URL", "https://push2.eastmoney.com/api/qt/ulist.np/get"),
			KLineURL:        getEnv("EASTMONEY_KLINE_URL", "https://push2his.eastmoney.com/api/qt/stock/kline/get"),
			AnnouncementURL: getEnv("EASTMONEY_ANNOUNCEMENT_URL", "https://np-anotice-stock.eastmoney.com/api/security/ann"),
		},
		Sina: SinaConfig{
			QuoteURL:  getEnv("SINA_QUOTE_URL", "https://hq.sinajs.cn/list="),
			SearchURL: getEnv("SINA_SEARCH_URL", "https://search.sina.com.cn/news"),
		},
		Tencent: TencentConfig{
			MinuteURL: getEnv("TENCENT_MINUTE_URL", "https://web.ifzq.gtimg.cn/appstock/app/minute/query"),
		},

		Fetch: FetchConfig{
			BatchSize:   getEnvAsInt("FETCH_BATCH_SIZE", 80),
			Concurrency: getEnvAsInt("FETCH_CONCURRENCY", 10),
			CallTimeout: getEnvAsDuration("FETCH_CALL_TIMEOUT", "8s"),
			RatePerSec:  getEnvAsFloat("FETCH_RATE_PER_SEC", 20),
			MaxRetries:  getEnvAsInt("FETCH_MAX_RETRIES", 2),
		},

		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			Enabled:     getEnvAsBool("REDIS_ENABLED", false),
			KeyPrefix:   getEnv("REDIS_KEY_PREFIX", "t1"),
			DialTimeout: getEnvAsDuration("REDIS_DIAL_TIMEOUT", "3s"),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 20),
		},

		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "t1.picks"),
		},

		StrategyPath: getEnv("STRATEGY_CONFIG", ""),
		Scheduler: SchedulerConfig{
			Spec:       getEnv("SCHEDULE_SPEC", "0 40,50 14 * * MON-FRI"),
			MaxRetries: getEnvAsInt("SCHEDULE_MAX_RETRIES", 1),
			RetryDelay: getEnvAsDuration("SCHEDULE_RETRY_DELAY", "20s"),
			RunTimeout: getEnvAsDuration("SCHEDULE_RUN_TIMEOUT", "4m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Fetch.BatchSize <= 0 {
		return fmt.Errorf("FETCH_BATCH_SIZE must be > 0")
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be > 0")
	}
	if c.Fetch.CallTimeout <= 0 {
		return fmt.Errorf("FETCH_CALL_TIMEOUT must be > 0")
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT and SERVER_WRITE_TIMEOUT must be > 0")
	}
	if c.Scheduler.RunTimeout <= 0 {
		return fmt.Errorf("SCHEDULE_RUN_TIMEOUT must be > 0")
	}
	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("SCHEDULE_MAX_RETRIES must be >= 0")
	}
	if c.Redis.Enabled && c.Redis.DialTimeout <= 0 {
		return fmt.Errorf("REDIS_DIAL_TIMEOUT must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
