package config

import (
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))
	if cfg.Env != "local" {
		t.Errorf("Env = %q, want local", cfg.Env)
	}
	if cfg.Drafts.Backend != "file" {
		t.Errorf("Backend = %q, want file", cfg.Drafts.Backend)
	}
	if cfg.Drafts.Dir != ".shodh/drafts" {
		t.Errorf("Dir = %q", cfg.Drafts.Dir)
	}
	if cfg.Drafts.TTL != 30*24*time.Hour {
		t.Errorf("TTL = %v", cfg.Drafts.TTL)
	}
	if cfg.Storage.Enabled {
		t.Error("storage should be disabled without an endpoint")
	}
}

func TestFromEnv_RedisAddrImpliesRedisBackend(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{"REDIS_ADDR": "localhost:6379"}))
	if cfg.Drafts.Backend != "redis" {
		t.Errorf("Backend = %q, want redis", cfg.Drafts.Backend)
	}

	cfg = FromEnv(envMap(map[string]string{"REDIS_ADDR": "localhost:6379", "SHODH_DRAFT_BACKEND": "memory"}))
	if cfg.Drafts.Backend != "memory" {
		t.Errorf("explicit backend overridden: %q", cfg.Drafts.Backend)
	}
}

func TestFromEnv_ProductionLogMode(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{"SHODH_ENV": "production"}))
	if cfg.LogMode != "prod" {
		t.Errorf("LogMode = %q, want prod", cfg.LogMode)
	}
}

func TestFromEnv_Storage(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		"SHODH_S3_ENDPOINT":   "minio:9000",
		"MINIO_ROOT_USER":     "user",
		"MINIO_ROOT_PASSWORD": "pass",
		"SHODH_S3_PUBLIC_URL": "https://cdn.example.com/",
	}))
	if !cfg.Storage.Enabled {
		t.Fatal("storage should be enabled")
	}
	if cfg.Storage.UseSSL {
		t.Error("minio endpoint should default to plain http")
	}
	if cfg.Storage.AccessKey != "user" || cfg.Storage.SecretKey != "pass" {
		t.Errorf("credentials = %q/%q", cfg.Storage.AccessKey, cfg.Storage.SecretKey)
	}
	if cfg.Storage.PublicBaseURL != "https://cdn.example.com" {
		t.Errorf("PublicBaseURL = %q", cfg.Storage.PublicBaseURL)
	}
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{"SHODH_DRAFT_TTL": "soon", "SHODH_DRAFT_MAX_ENTRIES": "-3"}))
	if cfg.Drafts.TTL != 30*24*time.Hour || cfg.Drafts.MaxEntries != 1024 {
		t.Errorf("fallbacks not applied: %+v", cfg.Drafts)
	}
}
