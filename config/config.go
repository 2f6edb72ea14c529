package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Database configuration (optional; empty host disables persistence)
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Telegram configuration
	TelegramBotToken string

	// LLM configuration
	LLM LLMConfig

	// Price feed configuration
	Prices PricesConfig

	// Briefing configuration
	Briefing BriefingConfig
}

// LLMConfig holds reasoning service configuration
type LLMConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Model    string
}

// PricesConfig holds price oracle parameters
type PricesConfig struct {
	CacheTTL      time.Duration
	StaleTTL      time.Duration
	CallsPerMin   int
	MaxRetries    int
	StreamEnabled bool
	StreamURL     string
}

// BriefingConfig holds morning cycle parameters and thresholds
type BriefingConfig struct {
	Hour       int  // local hour the cycle fires
	RunOnStart bool // fire one cycle immediately at boot

	OverallTimeout time.Duration // whole candidate evaluation batch
	PerCallTimeout time.Duration // one reasoning call during evaluation
	AdviceTimeout  time.Duration // one per-position advice call
	NewsTimeout    time.Duration // market news summary call

	MaxConcurrency  int      // in-flight reasoning calls per batch
	MinQuotes       int      // minimum price quotes before evaluating
	PrioritySymbols []string // evaluation order for the candidate subset
	FallbackSymbol  string   // winner of last resort

	Location *time.Location
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		DatabaseHost:     getEnvOrDefault("DB_HOST", ""),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "cryptobrief"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "cryptobrief"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", ""),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		LLM: LLMConfig{
			Enabled:  getEnvOrDefault("LLM_ENABLED", "true") == "true",
			Endpoint: getEnvOrDefault("LLM_ENDPOINT", "https://api.perplexity.ai"),
			APIKey:   getEnvOrDefault("LLM_API_KEY", ""),
			Model:    getEnvOrDefault("LLM_MODEL", "sonar"),
		},

		Prices: PricesConfig{
			CacheTTL:      time.Duration(getEnvInt("PRICE_CACHE_TTL_SECONDS", 300)) * time.Second,
			StaleTTL:      time.Duration(getEnvInt("PRICE_STALE_TTL_SECONDS", 3600)) * time.Second,
			CallsPerMin:   getEnvInt("PRICE_CALLS_PER_MINUTE", 24),
			MaxRetries:    getEnvInt("PRICE_MAX_RETRIES", 3),
			StreamEnabled: getEnvOrDefault("PRICE_STREAM_ENABLED", "false") == "true",
			StreamURL:     getEnvOrDefault("PRICE_STREAM_URL", "wss://stream.binance.com:9443/stream"),
		},

		Briefing: BriefingConfig{
			Hour:       getEnvInt("BRIEFING_HOUR", 8),
			RunOnStart: getEnvOrDefault("BRIEFING_RUN_ON_START", "false") == "true",

			OverallTimeout: time.Duration(getEnvInt("BRIEFING_OVERALL_TIMEOUT_SECONDS", 45)) * time.Second,
			PerCallTimeout: time.Duration(getEnvInt("BRIEFING_PER_CALL_TIMEOUT_SECONDS", 10)) * time.Second,
			AdviceTimeout:  time.Duration(getEnvInt("BRIEFING_ADVICE_TIMEOUT_SECONDS", 15)) * time.Second,
			NewsTimeout:    time.Duration(getEnvInt("BRIEFING_NEWS_TIMEOUT_SECONDS", 20)) * time.Second,

			MaxConcurrency:  getEnvInt("BRIEFING_MAX_CONCURRENCY", 3),
			MinQuotes:       getEnvInt("BRIEFING_MIN_QUOTES", 3),
			PrioritySymbols: getEnvList("BRIEFING_PRIORITY_SYMBOLS", []string{"BTC", "ETH", "SOL"}),
			FallbackSymbol:  getEnvOrDefault("BRIEFING_FALLBACK_SYMBOL", "BTC"),

			Location: loadLocation(getEnvOrDefault("BRIEFING_TZ", "CET")),
		},
	}
}

// loadLocation resolves a timezone name, falling back to a fixed CET offset
// when the zone database is unavailable.
func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to fixed CET: %v", name, err)
		return time.FixedZone("CET", 3600)
	}
	return loc
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvList gets a comma-separated environment variable or returns default value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
