package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application.
type Config struct {
	// Server
	ServerHost     string
	ServerPort     string
	AllowedOrigins []string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret string

	// Image storage
	S3Bucket  string
	AWSRegion string
}

// LoadConfig reads configuration from the environment, falling back to
// Docker secrets files for values not set as variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerHost:     getValue("SERVER_HOST", "0.0.0.0"),
		ServerPort:     getValue("SERVER_PORT", "8080"),
		DBHost:         getValue("DB_HOST", "localhost"),
		DBPort:         getValue("DB_PORT", "5432"),
		DBUser:         getValue("DB_USER", "postgres"),
		DBPassword:     getValue("DB_PASSWORD", ""),
		DBName:         getValue("DB_NAME", "pantryshare"),
		DBSSLMode:      getValue("DB_SSL_MODE", "disable"),
		RedisURL:       getValue("REDIS_URL", ""),
		RedisHost:      getValue("REDIS_HOST", "localhost"),
		RedisPort:      getValue("REDIS_PORT", "6379"),
		RedisPassword:  getValue("REDIS_PASSWORD", ""),
		JWTSecret:      getValue("JWT_SECRET", ""),
		S3Bucket:       getValue("S3_BUCKET_NAME", "pantryshare-recipe-images"),
		AWSRegion:      getValue("AWS_REGION", ""),
		AllowedOrigins: splitList(getValue("ALLOWED_ORIGINS", "http://localhost:5173")),
	}

	if raw := getValue("REDIS_DB", "0"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// String renders the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s:%s, DB: %s@%s:%s/%s, Redis: %s:%s, JWTSecret: [REDACTED], S3Bucket: %s}",
		c.ServerHost, c.ServerPort, c.DBUser, c.DBHost, c.DBPort, c.DBName,
		c.RedisHost, c.RedisPort, c.S3Bucket,
	)
}

// getValue prefers the environment variable, then the matching Docker
// secret (lowercased name under SECRETS_DIR), then the default.
func getValue(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value := readSecret(strings.ToLower(name)); value != "" {
		return value
	}
	return fallback
}

func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
