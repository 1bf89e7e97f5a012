package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// APP
	AppEnv string
	Port   string

	// Database
	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	JWTSecret string
	JWTTTL    time.Duration

	// Admin login
	AdminUsername string
	AdminPassword string

	// Realtime channel
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// App
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8000"),

		// DB
		DBHost: getEnv("DB_HOST", "127.0.0.1"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: getEnv("DB_PASS", "postgres"),
		DBName: getEnv("DB_NAME", "sklad_db"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "secret123"),
		JWTTTL:    getEnvDuration("JWT_TTL", 12*time.Hour),

		// Admin login
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "sklad-2024"),

		// Realtime channel
		WriteTimeout: getEnvDuration("WS_WRITE_TIMEOUT", 5*time.Second),
		IdleTimeout:  getEnvDuration("WS_IDLE_TIMEOUT", 60*time.Second),
	}

	return cfg, nil
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration returns a duration from env (plain seconds or Go syntax) or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
