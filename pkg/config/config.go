package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage driver names accepted by TUTORHUB_STORAGE_DRIVER.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds environment driven settings for the API server.
type Config struct {
	Env            string
	Host           string
	Port           string
	AllowedOrigins []string
	LogLevel       string

	JWTSecret     string
	SessionExpiry time.Duration

	// SessionPollInterval is the staleness bound clients are told to poll
	// session validity at. A revoked session is noticed within this window.
	SessionPollInterval time.Duration

	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

// StorageConfig selects and configures the collection store backend.
type StorageConfig struct {
	Driver  string
	DataDir string // file driver
}

// DatabaseConfig contains PostgreSQL connection settings for the postgres driver.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // seconds
}

// RedisConfig contains Redis settings for the redis driver and the analytics cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load builds a Config from environment variables with sensible defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("TUTORHUB_ENV", "development"),
		Host:                getEnv("TUTORHUB_HOST", "0.0.0.0"),
		Port:                getEnv("TUTORHUB_PORT", "8080"),
		LogLevel:            getEnv("TUTORHUB_LOG_LEVEL", "info"),
		JWTSecret:           getEnv("TUTORHUB_JWT_SECRET", "your-secret-key-change-me"),
		SessionExpiry:       time.Duration(getEnvAsInt("TUTORHUB_SESSION_EXPIRY_HOURS", 720)) * time.Hour,
		SessionPollInterval: time.Duration(getEnvAsInt("TUTORHUB_SESSION_POLL_SECONDS", 5)) * time.Second,
	}

	cfg.AllowedOrigins = splitAndTrim(os.Getenv("TUTORHUB_ALLOWED_ORIGINS"))

	cfg.Storage = StorageConfig{
		Driver:  strings.ToLower(getEnv("TUTORHUB_STORAGE_DRIVER", DriverFile)),
		DataDir: getEnv("TUTORHUB_DATA_DIR", "data"),
	}

	cfg.Database = DatabaseConfig{
		Host:            getEnv("TUTORHUB_DB_HOST", "127.0.0.1"),
		Port:            getEnv("TUTORHUB_DB_PORT", "5432"),
		User:            getEnv("TUTORHUB_DB_USER", "postgres"),
		Password:        os.Getenv("TUTORHUB_DB_PASSWORD"),
		Name:            getEnv("TUTORHUB_DB_NAME", "tutorhub"),
		SSLMode:         getEnv("TUTORHUB_DB_SSLMODE", "disable"),
		TimeZone:        getEnv("TUTORHUB_DB_TIMEZONE", "UTC"),
		MaxIdleConns:    getEnvAsInt("TUTORHUB_DB_MAX_IDLE_CONNS", 5),
		MaxOpenConns:    getEnvAsInt("TUTORHUB_DB_MAX_OPEN_CONNS", 20),
		ConnMaxLifetime: getEnvAsInt("TUTORHUB_DB_CONN_MAX_LIFETIME", 1800),
	}

	cfg.Redis = RedisConfig{
		Addr:     os.Getenv("TUTORHUB_REDIS_ADDR"),
		Password: os.Getenv("TUTORHUB_REDIS_PASSWORD"),
		DB:       getEnvAsInt("TUTORHUB_REDIS_DB", 0),
	}

	return cfg, nil
}

// ServerAddress joins the host and port into a listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction reports whether the app is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DSN builds a PostgreSQL DSN for gorm.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
		d.TimeZone,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		switch r {
		case ',', ';':
			return true
		default:
			return false
		}
	})

	var cleaned []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	if len(cleaned) == 0 {
		return nil
	}

	return cleaned
}
