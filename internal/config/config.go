package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	Port string

	PostgresHost     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresPort     string
	PostgresSSLMode  string
	SQLitePath       string

	RedisAddr string // empty disables the cross-instance bridge

	JWTSecret string

	AIProvider   string
	SaveDebounce time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresUser:     getEnvOrDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnvOrDefault("POSTGRES_DB", "documind"),
		PostgresPort:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getEnvOrDefault("SQLITE_PATH", "documind.db"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		JWTSecret:        getEnvOrDefault("JWT_SECRET", "dev-secret"),
		AIProvider:       getEnvOrDefault("AI_PROVIDER", "gemini"),
		SaveDebounce:     time.Duration(getEnvInt("SAVE_DEBOUNCE_MS", 2000)) * time.Millisecond,
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.AIProvider != "gemini" {
		return errors.New("unsupported AI provider: " + cfg.AIProvider + ". Currently supported: gemini")
	}
	if cfg.SaveDebounce <= 0 {
		return errors.New("SAVE_DEBOUNCE_MS must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
