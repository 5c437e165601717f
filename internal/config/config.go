package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingSigningKey is returned when JWT_SECRET is not set. The server must not start without it.
var ErrMissingSigningKey = errors.New("JWT_SECRET must be set")

// Config holds the application configuration.
type Config struct {
	ServerPort int
	Env        string
	LogLevel   string

	DatabaseDriver string // "sqlite" or "pgx"
	DatabaseURL    string

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	CORSOrigins []string

	AuthRatePerSecond int
	AuthRateBurst     int

	AdminUsername string
	AdminPassword string

	EventRetention     time.Duration
	EventPurgeSchedule string

	S3 S3Config
}

// S3Config configures the photo bucket. An empty Bucket disables uploads.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether photo storage is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, ErrMissingSigningKey
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "60m"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL %q", getEnv("JWT_TTL", ""))
	}

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	if driver != "sqlite" && driver != "pgx" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	ratePerSecond, err := strconv.Atoi(getEnv("AUTH_RATE_PER_SECOND", "5"))
	if err != nil || ratePerSecond <= 0 {
		return nil, fmt.Errorf("invalid AUTH_RATE_PER_SECOND")
	}
	rateBurst, err := strconv.Atoi(getEnv("AUTH_RATE_BURST", "10"))
	if err != nil || rateBurst <= 0 {
		return nil, fmt.Errorf("invalid AUTH_RATE_BURST")
	}

	retention, err := time.ParseDuration(getEnv("EVENT_RETENTION", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETENTION: %w", err)
	}

	return &Config{
		ServerPort:         port,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:     driver,
		DatabaseURL:        getEnv("DATABASE_URL", "./datingapp.db"),
		JWTSecret:          secret,
		JWTIssuer:          getEnv("JWT_ISSUER", "datingapp"),
		TokenTTL:           ttl,
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		AuthRatePerSecond:  ratePerSecond,
		AuthRateBurst:      rateBurst,
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		EventRetention:     retention,
		EventPurgeSchedule: getEnv("EVENT_PURGE_SCHEDULE", "@daily"),
		S3: S3Config{
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
	}, nil
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
