// Package config loads shodh runtime settings from the environment,
// optionally seeded by a .env file in the working directory.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the resolved runtime configuration.
type Config struct {
	Env           string
	LogMode       string
	Locale        string
	Drafts        DraftConfig
	OnboardingDir string
	PostgresDSN   string
	Storage       StorageConfig
}

// DraftConfig selects and configures the draft backend.
type DraftConfig struct {
	Backend     string // file, memory, redis
	Dir         string
	TTL         time.Duration
	MaxEntries  int
	RedisAddr   string
	RedisPrefix string
}

// StorageConfig configures the S3-compatible image bucket.
type StorageConfig struct {
	Enabled       bool
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv), nil
}

// FromEnv resolves configuration through the given lookup function.
func FromEnv(getenv func(string) string) *Config {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	env := firstNonEmpty(get("SHODH_ENV"), "local")
	logMode := firstNonEmpty(get("SHODH_LOG_MODE"), "dev")
	if strings.EqualFold(env, "production") && get("SHODH_LOG_MODE") == "" {
		logMode = "prod"
	}

	return &Config{
		Env:           env,
		LogMode:       logMode,
		Locale:        firstNonEmpty(get("SHODH_LOCALE"), "en"),
		Drafts:        loadDraftConfig(get),
		OnboardingDir: firstNonEmpty(get("SHODH_ONBOARDING_DIR"), ".shodh/onboarding"),
		PostgresDSN:   get("SHODH_PG_DSN"),
		Storage:       loadStorageConfig(get),
	}
}

func loadDraftConfig(get func(string) string) DraftConfig {
	backend := strings.ToLower(firstNonEmpty(get("SHODH_DRAFT_BACKEND"), "file"))
	if backend == "file" && get("REDIS_ADDR") != "" && get("SHODH_DRAFT_BACKEND") == "" {
		backend = "redis"
	}
	return DraftConfig{
		Backend:     backend,
		Dir:         firstNonEmpty(get("SHODH_DRAFT_DIR"), ".shodh/drafts"),
		TTL:         parseDuration(get("SHODH_DRAFT_TTL"), 30*24*time.Hour),
		MaxEntries:  parseInt(get("SHODH_DRAFT_MAX_ENTRIES"), 1024),
		RedisAddr:   get("REDIS_ADDR"),
		RedisPrefix: firstNonEmpty(get("SHODH_REDIS_PREFIX"), "shodh:draft:"),
	}
}

func loadStorageConfig(get func(string) string) StorageConfig {
	endpoint := get("SHODH_S3_ENDPOINT")
	return StorageConfig{
		Enabled:       endpoint != "",
		Endpoint:      endpoint,
		Region:        firstNonEmpty(get("SHODH_S3_REGION"), "us-east-1"),
		AccessKey:     firstNonEmpty(get("SHODH_S3_ACCESS_KEY"), get("MINIO_ROOT_USER")),
		SecretKey:     firstNonEmpty(get("SHODH_S3_SECRET_KEY"), get("MINIO_ROOT_PASSWORD")),
		Bucket:        firstNonEmpty(get("SHODH_S3_BUCKET"), "property-images"),
		UseSSL:        parseBool(get("SHODH_S3_USE_SSL"), endpoint != "" && !strings.HasPrefix(endpoint, "localhost") && !strings.HasPrefix(endpoint, "minio")),
		PublicBaseURL: strings.TrimRight(get("SHODH_S3_PUBLIC_URL"), "/"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
