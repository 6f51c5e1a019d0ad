package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPPort int

	StoreDriver string
	StoreDSN    string

	CatalogBaseURL string
	RedisAddr      string
	CatalogTTL     time.Duration

	SMTPAddr       string
	OrderSender    string
	OrderRecipient string

	SessionSecret string
	SessionTTL    time.Duration

	ShutdownTimeout time.Duration
}

// Load reads an optional .env file (files listed take precedence in order)
// and then the process environment.
func Load(files ...string) Config {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else {
		_ = godotenv.Load(files...)
	}

	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		StoreDriver: getEnv("STORE_DRIVER", "sqlite"),
		StoreDSN:    getEnv("STORE_DSN", "file:cart.db?_pragma=busy_timeout(5000)"),

		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "https://jsonplaceholder.typicode.com"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		CatalogTTL:     getEnvDuration("CATALOG_CACHE_TTL", 15*time.Minute),

		SMTPAddr:       getEnv("SMTP_ADDR", "localhost:2025"),
		OrderSender:    getEnv("ORDER_SENDER", "orders@framed-prints.local"),
		OrderRecipient: getEnv("ORDER_RECIPIENT", "artphotoagent@some.domain"),

		SessionSecret: getEnv("SESSION_SECRET", "dev-secret"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}

	return d
}
