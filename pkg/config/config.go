package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string
	Env            string
	AllowedOrigins []string

	// Database configuration
	DatabaseURL string
	DBMaxConns  int

	// Redis configuration (optional, balance cache is disabled when empty)
	RedisURL        string
	RedisPassword   string
	BalanceCacheTTL time.Duration

	// Identity configuration
	DefaultOwnerID int64
	JWTSecret      string

	// Assistant configuration
	AIProvider string
	AIAPIKey   string
	AIModel    string

	// Seed data
	CategoriesFile string
}

// Load loads configuration from a .env file (if any) and environment variables
func Load() (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8081"}),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxConns:      getEnvAsInt("DB_MAX_CONNS", 25),
		RedisURL:        getEnv("REDIS_URL", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		BalanceCacheTTL: getEnvAsDuration("BALANCE_CACHE_TTL", 5*time.Minute),
		DefaultOwnerID:  int64(getEnvAsInt("DEFAULT_OWNER_ID", 1)),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AIProvider:      strings.ToLower(getEnv("AI_PROVIDER", "")),
		AIAPIKey:        getEnv("AI_API_KEY", ""),
		AIModel:         getEnv("AI_MODEL", ""),
		CategoriesFile:  getEnv("CATEGORIES_FILE", "config/categories.yaml"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.DefaultOwnerID <= 0 {
		return fmt.Errorf("DEFAULT_OWNER_ID must be positive")
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	switch c.AIProvider {
	case "":
	case "openai", "gemini":
		if c.AIAPIKey == "" {
			return fmt.Errorf("AI_API_KEY is required when AI_PROVIDER=%s", c.AIProvider)
		}
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
