package config

import (
	"os"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (rate limiter backing store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT (shared across all apps in the family)
	JWTSecret       string
	JWTAccessExpiry time.Duration

	// Shared secret for admin/internal sync endpoints
	SyncKey string

	// Stripe webhook shared secret (facts transport only)
	StripeWebhookSecret string

	// Sync behaviour
	SyncTimeout        time.Duration
	TrialDays          int
	AuditRetentionDays int
	RetryInterval      time.Duration

	// Server
	Port        string
	CORSOrigins string

	// App registry
	AppsConfigPath string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "account_hub"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTAccessExpiry: parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),

		SyncKey:             getEnv("SYNC_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		SyncTimeout:        parseDuration(getEnv("SYNC_TIMEOUT", "5s"), 5*time.Second),
		TrialDays:          7,
		AuditRetentionDays: 90,
		RetryInterval:      parseDuration(getEnv("SYNC_RETRY_INTERVAL", "5m"), 5*time.Minute),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		AppsConfigPath: getEnv("APPS_CONFIG_PATH", "apps.json"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
