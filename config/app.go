package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type AppConfig struct {
	// Server
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string

	// Postgres
	PostgresURI string

	// Supabase auth
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Optional integrations
	RedisAddr string
	MongoURI  string
	MongoDB   string
	GCSBucket string
	GCSPublic bool

	VertexProjectID string
	VertexLocation  string
	VertexModel     string

	// Behaviour
	DatasetSource    string // sample|xlsx
	UploadCacheTTL   time.Duration
	InsightBufferTTL time.Duration
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),

		PostgresURI: getEnv("POSTGRES_URI", ""),

		JWTSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
		JWTIssuer:   getEnv("SUPABASE_JWT_ISSUER", ""),
		JWTAudience: getEnv("SUPABASE_JWT_AUDIENCE", "authenticated"),

		RedisAddr: firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		MongoURI:  getEnv("MONGO_URI", ""),
		MongoDB:   getEnv("MONGO_DB", "sheetlens"),
		GCSBucket: getEnv("GCS_BUCKET", ""),
		GCSPublic: getEnv("GCS_PUBLIC", "false") == "true",

		VertexProjectID: getEnv("VERTEX_PROJECT_ID", ""),
		VertexLocation:  getEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:     getEnv("VERTEX_MODEL", "gemini-1.5-flash"),

		DatasetSource: strings.ToLower(getEnv("DATASET_SOURCE", "sample")),
	}

	var err error
	if cfg.UploadCacheTTL, err = getDuration("UPLOAD_CACHE_TTL", time.Minute); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.InsightBufferTTL, err = getDuration("INSIGHT_BUFFER_TTL", 24*time.Hour); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.PostgresURI == "" {
		return fmt.Errorf("POSTGRES_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	switch c.DatasetSource {
	case "sample", "xlsx":
	default:
		return fmt.Errorf("DATASET_SOURCE must be sample or xlsx, got %q", c.DatasetSource)
	}
	if c.DatasetSource == "xlsx" && c.GCSBucket == "" {
		return fmt.Errorf("DATASET_SOURCE=xlsx requires GCS_BUCKET")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getEnv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
