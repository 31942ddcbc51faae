package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Webhooks  WebhookConfig
	Reconcile ReconcileConfig
	AWS       AWSConfig
	Analysis  AnalysisConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/crm?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds settings for validating CRM-issued API tokens.
// This service never mints tokens; it only validates them.
type JWTConfig struct {
	Secret string
}

// WebhookConfig holds provider webhook settings.
type WebhookConfig struct {
	// ZoomSecretToken is the Zoom app secret used for the endpoint
	// url_validation handshake and, when set, request signature validation.
	ZoomSecretToken string
	// RequireSignature rejects Zoom calls without a valid signature instead
	// of accepting them on URL obscurity alone.
	RequireSignature bool
	// AllowIntegrationLookup enables the legacy account-resolution fallback:
	// find the single connected integration of the event's provider type.
	AllowIntegrationLookup bool
	// RequireCapabilityToken enforces the per-account token on the Meet
	// webhook URL (validated against the integration's stored hash).
	RequireCapabilityToken bool
}

// ReconcileConfig holds delivery reconciliation settings.
type ReconcileConfig struct {
	WindowMinutes int // half-width of the symmetric event matching window
}

// AWSConfig holds AWS credentials and the webhook archive bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ArchiveBucket   string
}

// AnalysisConfig points at the message-analysis collaborator used for
// engagement score recomputes.
type AnalysisConfig struct {
	BaseURL string
	APIKey  string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/crm?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "crm"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
		},
		Webhooks: WebhookConfig{
			ZoomSecretToken:        getEnv("ZOOM_WEBHOOK_SECRET_TOKEN", ""),
			RequireSignature:       getEnvBool("WEBHOOK_REQUIRE_SIGNATURE", false),
			AllowIntegrationLookup: getEnvBool("WEBHOOK_ALLOW_INTEGRATION_LOOKUP", true),
			RequireCapabilityToken: getEnvBool("WEBHOOK_REQUIRE_CAPABILITY_TOKEN", false),
		},
		Reconcile: ReconcileConfig{
			WindowMinutes: getEnvInt("RECONCILE_WINDOW_MINUTES", 120),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ArchiveBucket:   getEnv("AWS_S3_WEBHOOK_ARCHIVE_BUCKET", "crm-webhook-archive"),
		},
		Analysis: AnalysisConfig{
			BaseURL: getEnv("ANALYSIS_BASE_URL", ""),
			APIKey:  getEnv("ANALYSIS_API_KEY", ""),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
