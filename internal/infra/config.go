package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Run history backends.
const (
	RunStoreNone     = "none"
	RunStorePostgres = "postgres"
	RunStoreSQLite   = "sqlite"
)

// Chart artifact backends.
const (
	ArtifactStoreNone = "none"
	ArtifactStoreFS   = "fs"
	ArtifactStoreS3   = "s3"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RunStore           string
	SQLitePath         string
	ForecastConfig     string
	DefaultLocale      string
	CORSAllowedOrigins []string
	ArtifactStore      string
	ArtifactPath       string
	S3Endpoint         string
	S3Bucket           string
	S3AccessKey        string
	S3SecretKey        string
	S3UseSSL           bool
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	MaxUploadBytes     int64
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RunStore:           strings.ToLower(getEnv("RUN_STORE", RunStoreNone)),
		SQLitePath:         getEnv("SQLITE_PATH", "data/trafficcast.db"),
		ForecastConfig:     os.Getenv("FORECAST_CONFIG"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		ArtifactStore:      strings.ToLower(getEnv("ARTIFACT_STORE", ArtifactStoreNone)),
		ArtifactPath:       getEnv("ARTIFACT_PATH", "./artifacts"),
		S3Endpoint:         getEnv("S3_ENDPOINT", "minio:9000"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:           getEnvBool("S3_USE_SSL", false),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,
	}

	switch cfg.RunStore {
	case RunStoreNone, RunStoreSQLite:
	case RunStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when RUN_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported RUN_STORE %q", cfg.RunStore)
	}

	switch cfg.ArtifactStore {
	case ArtifactStoreNone, ArtifactStoreFS:
	case ArtifactStoreS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when ARTIFACT_STORE=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported ARTIFACT_STORE %q", cfg.ArtifactStore)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
