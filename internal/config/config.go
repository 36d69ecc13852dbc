package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string
	SlowQueryMS int

	// JWT
	JWTSecret          string
	JWTExpirationHours int

	// Ledger (QuickBooks-compatible accounting API)
	LedgerAPIBaseURL   string
	LedgerTokenURL     string
	LedgerAuthorizeURL string
	LedgerClientID     string
	LedgerClientSecret string
	LedgerRedirectURI  string
	LedgerMaxResults   int

	// Ledger tokens at rest are sealed with this key (64 hex chars)
	TokenCipherKey string

	// Background Workers
	WorkerCount       int
	SyncIntervalHours int

	// CORS
	AllowedOrigins []string

	// Email (Resend)
	ResendAPIKey string
	FromEmail    string

	// Sentry
	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SlowQueryMS:        getEnvAsInt("SLOW_QUERY_MS", 200),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		LedgerAPIBaseURL:   getEnv("LEDGER_API_BASE_URL", "https://quickbooks.api.intuit.com"),
		LedgerTokenURL:     getEnv("LEDGER_TOKEN_URL", "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"),
		LedgerAuthorizeURL: getEnv("LEDGER_AUTHORIZE_URL", "https://appcenter.intuit.com/connect/oauth2"),
		LedgerClientID:     getEnv("LEDGER_CLIENT_ID", ""),
		LedgerClientSecret: getEnv("LEDGER_CLIENT_SECRET", ""),
		LedgerRedirectURI:  getEnv("LEDGER_REDIRECT_URI", ""),
		LedgerMaxResults:   getEnvAsInt("LEDGER_MAX_RESULTS", 1000),
		TokenCipherKey:     getEnv("TOKEN_CIPHER_KEY", ""),
		WorkerCount:        getEnvAsInt("WORKER_COUNT", 5),
		SyncIntervalHours:  getEnvAsInt("SYNC_INTERVAL_HOURS", 6),
		AllowedOrigins:     getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
		FromEmail:          getEnv("FROM_EMAIL", "alerts@leakwatch.app"),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	if cfg.TokenCipherKey == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("TOKEN_CIPHER_KEY is required in production")
	}

	// Development defaults
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
