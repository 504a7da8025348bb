// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Redis        RedisConfig
	Authority    AuthorityConfig
	Entitlements EntitlementConfig
	I18n         I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// AuthorityConfig points at the remote license authority and bounds the retry
// budget for a single validation.
type AuthorityConfig struct {
	BaseURL          string
	APIToken         string
	MaxAttempts      int
	BaseDelayMs      int
	MaxDelayMs       int
	RequestTimeoutMs int
}

// EntitlementConfig controls decision freshness windows and the background
// revalidation cadence.
type EntitlementConfig struct {
	CacheTTLMinutes        int
	GraceHours             int
	RevalidateEveryMinutes int
	AuditRetentionDays     int
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "entitlements"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24), // 24 hours
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Authority: AuthorityConfig{
			BaseURL:          getEnv("LICENSE_AUTHORITY_URL", "http://localhost:9090"),
			APIToken:         getEnv("LICENSE_AUTHORITY_TOKEN", ""),
			MaxAttempts:      getEnvAsInt("LICENSE_AUTHORITY_MAX_ATTEMPTS", 3),
			BaseDelayMs:      getEnvAsInt("LICENSE_AUTHORITY_BASE_DELAY_MS", 1000),
			MaxDelayMs:       getEnvAsInt("LICENSE_AUTHORITY_MAX_DELAY_MS", 8000),
			RequestTimeoutMs: getEnvAsInt("LICENSE_AUTHORITY_TIMEOUT_MS", 5000),
		},
		Entitlements: EntitlementConfig{
			CacheTTLMinutes:        getEnvAsInt("ENTITLEMENT_CACHE_TTL_MINUTES", 15),
			GraceHours:             getEnvAsInt("ENTITLEMENT_GRACE_HOURS", 24),
			RevalidateEveryMinutes: getEnvAsInt("ENTITLEMENT_REVALIDATE_MINUTES", 5),
			AuditRetentionDays:     getEnvAsInt("AUDIT_RETENTION_DAYS", 365),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Authority.BaseURL == "" {
		return fmt.Errorf("license authority URL is required")
	}

	if c.Entitlements.GraceHours*60 < c.Entitlements.CacheTTLMinutes {
		return fmt.Errorf("grace window must not be shorter than the cache TTL")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
