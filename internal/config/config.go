// internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    slog.Level
	Pipeline    PipelineConfig
	Scheduler   SchedulerConfig
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
}

// PipelineConfig holds scoring pipeline configuration
type PipelineConfig struct {
	DataDir        string
	PredictionsDir string
	TopN           int
	HalfLifeHours  float64
}

// SchedulerConfig holds periodic rerun configuration
type SchedulerConfig struct {
	Interval      time.Duration
	ArchiveRaw    bool
	RetryAttempts int
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration. An empty Host disables
// persistence.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MinConns     int
	MaxLifetime  time.Duration
	SSLMode      string
}

// Enabled reports whether a database is configured
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// ConnString returns the postgres connection URL
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// NATSConfig holds NATS configuration. An empty URL disables events.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	EventsTopic    string
}

// Enabled reports whether an event bus is configured
func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}

// Load loads configuration from a .env file, if present, and the
// environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		Pipeline: PipelineConfig{
			DataDir:        getEnv("DATA_DIR", "data"),
			PredictionsDir: getEnv("PREDICTIONS_DIR", "predictions"),
			TopN:           getEnvAsInt("TREND_TOP_N", 10),
			HalfLifeHours:  getEnvAsFloat("TREND_HALF_LIFE_HOURS", 12),
		},
		Scheduler: SchedulerConfig{
			Interval:      getEnvAsDuration("SCHEDULER_INTERVAL", 24*time.Hour),
			ArchiveRaw:    getEnvAsBool("SCHEDULER_ARCHIVE_RAW", true),
			RetryAttempts: getEnvAsInt("SCHEDULER_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvAsDuration("SCHEDULER_RETRY_DELAY", 5*time.Second),
			RetryMaxDelay: getEnvAsDuration("SCHEDULER_RETRY_MAX_DELAY", time.Minute),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", ""),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "trending_data"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MinConns:     getEnvAsInt("DB_MIN_CONNS", 1),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", ""),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			EventsTopic:    getEnv("PREDICTIONS_EVENTS_TOPIC", "predictions"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Pipeline.TopN <= 0 {
		return fmt.Errorf("TREND_TOP_N must be positive, got %d", config.Pipeline.TopN)
	}
	if config.Pipeline.HalfLifeHours <= 0 {
		return fmt.Errorf("TREND_HALF_LIFE_HOURS must be positive, got %v", config.Pipeline.HalfLifeHours)
	}
	if config.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", config.Scheduler.Interval)
	}
	if config.Scheduler.RetryAttempts <= 0 {
		return fmt.Errorf("SCHEDULER_RETRY_ATTEMPTS must be positive, got %d", config.Scheduler.RetryAttempts)
	}
	if config.Database.Enabled() && config.Database.Password == "postgres" && config.Environment != "development" {
		return fmt.Errorf("database password must be set in non-development environments")
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
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv(key, ""))); err == nil {
		return level
	}
	return defaultValue
}
