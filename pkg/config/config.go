package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable through STORE_BACKEND
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port       string
	Env        string // development, staging, production
	CORSOrigin string

	// Storage
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig

	// External collaborators
	Forecast ForecastConfig
	EmailJS  EmailJSConfig

	// IMI
	DefaultUserID    string
	SchedulerEnabled bool

	// Logging
	LogLevel  string
	LogFormat string
}

// StoreConfig selects the signal store backend
type StoreConfig struct {
	Backend    string // memory, sqlite, redis, postgres
	SQLitePath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	Prefix   string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ForecastConfig holds the remote forecast service configuration
type ForecastConfig struct {
	BaseURL string
	Prefix  string
	Timeout time.Duration
}

// EmailJSConfig holds the contact relay configuration
type EmailJSConfig struct {
	BaseURL     string
	ServiceID   string
	TemplateID  string
	PublicKey   string
	AccessToken string
}

// Configured reports whether the relay has enough settings to send
func (e EmailJSConfig) Configured() bool {
	return e.ServiceID != "" && e.TemplateID != "" && e.PublicKey != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port:       getEnv("PORT", "8000"),
		Env:        getEnv("ENV", "development"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),

		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
			SQLitePath: getEnv("SQLITE_PATH", "imi.db"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Prefix:   getEnv("REDIS_PREFIX", "imi"),
		},

		Forecast: ForecastConfig{
			BaseURL: strings.TrimSuffix(getEnv("FORECAST_BASE_URL", "http://127.0.0.1:8000"), "/"),
			Prefix:  normalizePrefix(getEnv("FORECAST_PREFIX", "/api")),
			Timeout: getEnvAsDuration("FORECAST_TIMEOUT", "6s"),
		},

		EmailJS: EmailJSConfig{
			BaseURL:     strings.TrimSuffix(getEnv("EMAILJS_BASE_URL", "https://api.emailjs.com"), "/"),
			ServiceID:   getEnv("EMAILJS_SERVICE_ID", ""),
			TemplateID:  getEnv("EMAILJS_TEMPLATE_ID", ""),
			PublicKey:   getEnv("EMAILJS_PUBLIC_KEY", ""),
			AccessToken: getEnv("EMAILJS_ACCESS_TOKEN", ""),
		},

		DefaultUserID:    getEnv("DEFAULT_USER_ID", "demo"),
		SchedulerEnabled: getEnvAsBool("SCHEDULER_ENABLED", false),

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Store.Backend {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: memory, sqlite, redis, postgres")
	}

	if c.Forecast.Timeout <= 0 {
		return fmt.Errorf("FORECAST_TIMEOUT must be positive")
	}

	return nil
}

// ForecastURL joins base + prefix + path with exactly one slash between parts
func (c *Config) ForecastURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.Forecast.BaseURL + c.Forecast.Prefix + path
}

// Helper functions (private, only used within this file)

// normalizePrefix maps "/" to no prefix and strips a trailing slash
func normalizePrefix(prefix string) string {
	if prefix == "/" {
		return ""
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
