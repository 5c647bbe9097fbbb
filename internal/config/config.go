package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	Version     string
	DatabaseURL string // empty: in-memory store (dev / tests)

	RedisAddr     string // empty: in-process notifier, rate limiter off
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogJSON  bool

	// Store / concurrency knobs
	StoreTimeoutMS int // per store call
	WriteRetries   int // version-conflict retries before Contention

	// Rate limiting
	APIRateLimit  int // requests per window, per IP
	APIRateWindow int // seconds
}

// Load reads configuration from the environment (.env honored when present).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:        getEnv("APP_PORT", "8080"),
		Version:        getEnv("APP_VERSION", "dev"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogJSON:        os.Getenv("LOG_JSON") == "true",
		StoreTimeoutMS: getEnvInt("STORE_TIMEOUT_MS", 3000),
		WriteRetries:   getEnvInt("WRITE_RETRIES", 3),
		APIRateLimit:   getEnvInt("API_RATE_LIMIT", 60),
		APIRateWindow:  getEnvInt("API_RATE_WINDOW_SECONDS", 60),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
