package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GIN_MODE", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "POSTGRES_URI", "DATABASE_URL",
		"POSTGRES_AUTO_MIGRATE", "POSTGRES_MAX_OPEN_CONNS", "POSTGRES_MAX_IDLE_CONNS",
		"REDIS_ADDR", "REDIS_URI", "REDIS_URL", "MONGO_URI", "MONGO_DB",
		"JWT_SECRET", "JWT_REFRESH_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"RESET_TOKEN_TTL", "EXPOSE_RESET_TOKEN", "GCS_BUCKET", "GOOGLE_APPLICATION_CREDENTIALS",
		"GCS_PUBLIC_READ", "EVENT_STREAM", "EVENT_WORKERS", "EVENT_MAX_ATTEMPTS", "EXPIRY_SCHEDULE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URI", "postgres://localhost/jobboard")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "redis://localhost:6379/0" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Auth.AccessTTL != 5*time.Minute {
		t.Fatalf("access ttl = %v", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.ResetTTL != 30*time.Minute || cfg.HTTP.Port != "8080" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_YAMLWithExpansionAndOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_PG_PASSWORD", "pw")
	t.Setenv("JWT_SECRET", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
http:
  port: "9090"
postgres:
  uri: postgres://app:${TEST_PG_PASSWORD}@db/jobboard
redis:
  addr: localhost:6379
auth:
  jwt_secret: from-file
  refresh_ttl: 48h
gcs:
  bucket: ${UNSET_BUCKET_VAR}
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Postgres.URI != "postgres://app:pw@db/jobboard" {
		t.Fatalf("uri = %q", cfg.Postgres.URI)
	}
	if cfg.HTTP.Port != "9090" {
		t.Fatalf("port = %q", cfg.HTTP.Port)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.RefreshTTL != 48*time.Hour {
		t.Fatalf("refresh ttl = %v", cfg.Auth.RefreshTTL)
	}
	if cfg.GCS.Bucket != "${UNSET_BUCKET_VAR}" {
		t.Fatalf("unset var should stay literal, got %q", cfg.GCS.Bucket)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"POSTGRES_URI", "REDIS_ADDR", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_URI", "postgres://x")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("EVENT_WORKERS", "many")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "EVENT_WORKERS") {
		t.Fatalf("expected EVENT_WORKERS error, got %v", err)
	}
}
