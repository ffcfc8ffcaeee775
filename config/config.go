package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration. Optional: an empty host disables caching and
	// rate limiting rather than failing startup.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Identity provider configuration
	ClerkJWTKey        string
	ClerkWebhookSecret string

	// Media storage configuration
	S3Bucket  string
	AWSRegion string

	// CORS
	ClientOrigin string
}

// LoadConfig creates a new Config instance from environment variables.
// In development a .env file at the working directory is loaded first.
func LoadConfig() (*Config, error) {
	if !IsProduction() {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("no .env file found, using process environment")
		}
	}

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", raw, err)
		}
		redisDB = parsed
	}

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "devhance"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisURL:      os.Getenv("REDIS_URL"),

		ClerkJWTKey:        os.Getenv("CLERK_JWT_KEY"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SIGNING_SECRET"),

		S3Bucket:  getEnv("S3_BUCKET_NAME", "devhance-media"),
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),

		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
