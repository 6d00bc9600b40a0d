package config

import (
	"os"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port     string
	MongoURI string
	RedisURL string

	// Auth
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Billing webhook (subscription lifecycle events from the payment gateway)
	BillingWebhookSecret string

	// SMTP for outbound email dispatch
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Ledger behavior
	CancelWindow time.Duration // non-admin refund window after investmentDate

	// Superadmin configuration
	AdminUserIDs []string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	adminEnv := getEnv("ADMIN_USER_IDS", "")
	var adminUserIDs []string
	if adminEnv != "" {
		adminUserIDs = strings.Split(adminEnv, ",")
		for i := range adminUserIDs {
			adminUserIDs[i] = strings.TrimSpace(adminUserIDs[i])
		}
	}

	return &Config{
		Port:     getEnv("PORT", "3001"),
		MongoURI: getEnv("MONGODB_URI", ""),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		AccessTokenExpiry:  getDurationEnv("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenExpiry: getDurationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),

		BillingWebhookSecret: getEnv("BILLING_WEBHOOK_SECRET", ""),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "no-reply@crowdvest.local"),

		CancelWindow: getDurationEnv("CANCEL_WINDOW", 24*time.Hour),

		AdminUserIDs: adminUserIDs,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
