package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application-level settings read from the environment
type Config struct {
	// ReferenceCurrency is the default normalization target
	ReferenceCurrency string
	// FetchConcurrency caps in-flight provider calls during ingest
	FetchConcurrency int
	// FetchMaxRetries is the retry count per ticker after the first attempt
	FetchMaxRetries int
	// FetchBackoffBase is the first retry delay; it doubles on each retry
	FetchBackoffBase time.Duration
}

// Load builds a Config from environment variables with defaults
func Load() *Config {
	return &Config{
		ReferenceCurrency: getEnv("REFERENCE_CURRENCY", "USD"),
		FetchConcurrency:  getEnvInt("FETCH_CONCURRENCY", 8),
		FetchMaxRetries:   getEnvInt("FETCH_MAX_RETRIES", 3),
		FetchBackoffBase:  getEnvDuration("FETCH_BACKOFF_BASE", 5*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
