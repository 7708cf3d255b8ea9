package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	HTTPPort             string
	AdminAPIKey          string
	GeminiAPIKey         string
	GeminiModel          string
	YahooURL             string
	YahooRetryMax        int
	YahooRetryBaseDelay  time.Duration
	QuoteWorkerInterval  time.Duration
	ReportWorkerInterval time.Duration
	GoogleSheetsID       string
	GoogleCredentials    string
	NormalizeWeights     bool
	MaxUploadBytes       int64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:          envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:             envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:          envOrDefault("ADMIN_API_KEY", ""),
		GeminiAPIKey:         envOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		YahooURL:             envOrDefault("YAHOO_URL", "https://query1.finance.yahoo.com"),
		YahooRetryMax:        envOrDefaultInt("YAHOO_RETRY_MAX", 3),
		YahooRetryBaseDelay:  envOrDefaultDuration("YAHOO_RETRY_BASE_DELAY", 2*time.Second),
		QuoteWorkerInterval:  envOrDefaultDuration("QUOTE_WORKER_INTERVAL", 1*time.Hour),
		ReportWorkerInterval: envOrDefaultDuration("REPORT_WORKER_INTERVAL", 24*time.Hour),
		GoogleSheetsID:       envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentials:    envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		NormalizeWeights:     envOrDefaultBool("NORMALIZE_WEIGHTS", false),
		MaxUploadBytes:       int64(envOrDefaultInt("MAX_UPLOAD_BYTES", 16<<20)),
	}
}

// SheetsEnabled reports whether both the spreadsheet ID and the service account are configured.
func (c Config) SheetsEnabled() bool {
	return c.GoogleSheetsID != "" && c.GoogleCredentials != ""
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
