package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr  string
	Environment string
	FrontendURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Access and refresh tokens are signed with distinct secrets so a leak
	// of one cannot be used to forge the other.
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	RedisAddr string

	// MinIO/S3 configuration for photo storage
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Upload path goes through the AWS SDK so the bucket can live on
	// real S3 in production while MinIO serves local development.
	S3Region       string
	S3UsePathStyle bool

	LogLevel string
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	accessTTL := parseDurationOrDefault("JWT_ACCESS_TTL", 24*time.Hour)
	refreshTTL := parseDurationOrDefault("JWT_REFRESH_TTL", 7*24*time.Hour)
	minioUseSSL, _ := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", "false"))
	s3UsePathStyle, _ := strconv.ParseBool(getEnvOrDefault("S3_USE_PATH_STYLE", "true"))

	return &Config{
		ServerAddr:       getEnvOrDefault("SERVER_ADDR", ":8080"),
		Environment:      getEnvOrDefault("ENVIRONMENT", "development"),
		FrontendURL:      getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		DBHost:           getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:           getEnvOrDefault("DB_PORT", "5432"),
		DBUser:           getEnvOrDefault("DB_USER", "postgres"),
		DBPassword:       getEnvOrDefault("DB_PASSWORD", "password"),
		DBName:           getEnvOrDefault("DB_NAME", "imagehost"),
		JWTAccessSecret:  getEnvOrDefault("JWT_SECRET", generateDefaultSecret()),
		JWTRefreshSecret: getEnvOrDefault("JWT_REFRESH_SECRET", generateDefaultSecret()),
		AccessTokenTTL:   accessTTL,
		RefreshTokenTTL:  refreshTTL,
		RedisAddr:        getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		MinioEndpoint:    getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:   getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:   getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:      getEnvOrDefault("MINIO_BUCKET", "photos"),
		MinioUseSSL:      minioUseSSL,
		S3Region:         getEnvOrDefault("S3_REGION", "us-east-1"),
		S3UsePathStyle:   s3UsePathStyle,
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// IsProduction reports whether the server runs with production hardening
// (secure cookies, no error internals in responses).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func generateDefaultSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "dev-secret-change-in-production"
	}
	return hex.EncodeToString(bytes)
}
