package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	// DatabaseURL selects the postgres store; when empty the server runs on
	// the in-memory store with seed products.
	DatabaseURL string

	// KafkaBrokers selects the kafka notifier; when empty notifications are
	// written to the log.
	KafkaBrokers  []string
	LowStockTopic string
	SalesTopic    string

	LowStockFlush time.Duration
}

func Load() Config {
	return Config{
		AppEnv:        getEnv("APP_ENV", "dev"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		HTTPPort:      getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		LowStockTopic: getEnv("LOW_STOCK_TOPIC", "inventory.low-stock"),
		SalesTopic:    getEnv("SALES_TOPIC", "reports.daily-sales"),
		LowStockFlush: time.Duration(getEnvInt("LOW_STOCK_FLUSH_MS", 500)) * time.Millisecond,
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

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
