package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ExportTargetFilesystem = "filesystem"
	ExportTargetS3         = "s3"
)

type Config struct {
	API       APIConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Viewer    ViewerConfig
	Export    ExportConfig
	S3        S3Config
	DynamoDB  DynamoDBConfig
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type LogConfig struct {
	Level string
}

// RateLimitConfig controls outbound request throttling, per target host.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type ViewerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

type ExportConfig struct {
	Target      string
	Dir         string
	Concurrency int
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	URLMode         string
	PresignedTTL    time.Duration
}

type DynamoDBConfig struct {
	Enabled         bool
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

func Load() (*Config, error) {
	// A missing .env file is fine; the environment wins anyway.
	_ = godotenv.Load()

	requestTimeout, err := parseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	concurrency, err := strconv.Atoi(getEnv("EXPORT_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_CONCURRENCY: %w", err)
	}

	maxUploadMB, err := strconv.Atoi(getEnv("VIEWER_MAX_UPLOAD_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid VIEWER_MAX_UPLOAD_MB: %w", err)
	}

	presignedTTL, err := parseDuration(getEnv("S3_PRESIGNED_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid S3_PRESIGNED_TTL: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:        strings.TrimRight(getEnv("IMAGE_API_BASE_URL", "http://localhost"), "/"),
			RequestTimeout: requestTimeout,
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			RPS:     rps,
			Burst:   burst,
		},
		Viewer: ViewerConfig{
			Port:            getEnv("VIEWER_PORT", "8090"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  int64(maxUploadMB) * 1024 * 1024,
		},
		Export: ExportConfig{
			Target:      strings.ToLower(getEnv("EXPORT_TARGET", ExportTargetFilesystem)),
			Dir:         getEnv("EXPORT_DIR", "./export"),
			Concurrency: concurrency,
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-2"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
			KeyPrefix:       getEnv("S3_KEY_PREFIX", "gallery"),
			URLMode:         getEnv("S3_URL_MODE", "presigned"),
			PresignedTTL:    presignedTTL,
		},
		DynamoDB: DynamoDBConfig{
			Enabled:         getEnvBool("DYNAMODB_ENABLED", false),
			TableName:       getEnv("DYNAMODB_TABLE", "gallery-exports"),
			Region:          getEnv("DYNAMODB_REGION", "us-east-2"),
			Endpoint:        getEnv("DYNAMODB_ENDPOINT", ""),
			AccessKeyID:     getEnv("DYNAMODB_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("DYNAMODB_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("IMAGE_API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return fmt.Errorf("RATE_LIMIT_RPS must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("RATE_LIMIT_BURST must be positive")
		}
	}
	if c.Export.Concurrency <= 0 {
		return fmt.Errorf("EXPORT_CONCURRENCY must be positive")
	}
	if c.Viewer.MaxUploadBytes <= 0 {
		return fmt.Errorf("VIEWER_MAX_UPLOAD_MB must be positive")
	}
	switch c.Export.Target {
	case ExportTargetFilesystem:
	case ExportTargetS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when EXPORT_TARGET=s3")
		}
	default:
		return fmt.Errorf("unsupported EXPORT_TARGET: %s", c.Export.Target)
	}
	if c.DynamoDB.Enabled && c.DynamoDB.TableName == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required when DYNAMODB_ENABLED=true")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
