// Package config loads process configuration and opens the backing stores.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Port            string        `yaml:"port"`
		GinMode         string        `yaml:"gin_mode"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Postgres struct {
		URI          string `yaml:"uri"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"postgres"`
	Redis struct {
		Addr string `yaml:"addr"` // host:port or redis:// URL
	} `yaml:"redis"`
	Mongo struct {
		URI      string `yaml:"uri"` // optional; audit trail disabled when empty
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Auth struct {
		JWTSecret        string        `yaml:"jwt_secret"`
		RefreshSecret    string        `yaml:"refresh_secret"`
		Issuer           string        `yaml:"issuer"`
		AccessTTL        time.Duration `yaml:"access_ttl"`
		RefreshTTL       time.Duration `yaml:"refresh_ttl"`
		ResetTTL         time.Duration `yaml:"reset_ttl"`
		ExposeResetToken bool          `yaml:"expose_reset_token"`
	} `yaml:"auth"`
	GCS struct {
		Bucket          string `yaml:"bucket"` // optional; resume upload disabled when empty
		CredentialsFile string `yaml:"credentials_file"`
		PublicRead      bool   `yaml:"public_read"`
	} `yaml:"gcs"`
	Workers struct {
		EventStream      string `yaml:"event_stream"`
		EventWorkers     int    `yaml:"event_workers"`
		EventMaxAttempts int    `yaml:"event_max_attempts"`
		ExpirySchedule   string `yaml:"expiry_schedule"`
	} `yaml:"workers"`
}

func Defaults() *Config {
	var c Config
	c.HTTP.Port = "8080"
	c.HTTP.GinMode = "release"
	c.HTTP.ShutdownTimeout = 10 * time.Second
	c.Log.Level = "info"
	c.Postgres.AutoMigrate = true
	c.Postgres.MaxOpenConns = 100
	c.Postgres.MaxIdleConns = 10
	c.Mongo.Database = "jobboard"
	c.Auth.Issuer = "jobboard"
	c.Auth.AccessTTL = 15 * time.Minute
	c.Auth.RefreshTTL = 7 * 24 * time.Hour
	c.Auth.ResetTTL = 30 * time.Minute
	c.Workers.EventStream = "applications:events"
	c.Workers.EventWorkers = 2
	c.Workers.EventMaxAttempts = 5
	c.Workers.ExpirySchedule = "@every 5m"
	return &c
}

// Load applies defaults, then the YAML file at path (if path is non-empty),
// then environment variables. ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(b))), cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.URI == "" {
		errs = append(errs, errors.New("POSTGRES_URI is not set"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) is not set"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	return errors.Join(errs...)
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR}; unknown variables are left as written.
func expandEnvVars(content string) string {
	return envVarRe.ReplaceAllStringFunc(content, func(match string) string {
		if v := os.Getenv(match[2 : len(match)-1]); v != "" {
			return v
		}
		return match
	})
}

func applyEnv(c *Config) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	var errs []error
	boolean := func(dst *bool, key string) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(dst *time.Duration, key string) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str(&c.HTTP.Port, "PORT")
	str(&c.HTTP.GinMode, "GIN_MODE")
	duration(&c.HTTP.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	str(&c.Log.Level, "LOG_LEVEL")

	str(&c.Postgres.URI, "POSTGRES_URI", "DATABASE_URL")
	boolean(&c.Postgres.AutoMigrate, "POSTGRES_AUTO_MIGRATE")
	integer(&c.Postgres.MaxOpenConns, "POSTGRES_MAX_OPEN_CONNS")
	integer(&c.Postgres.MaxIdleConns, "POSTGRES_MAX_IDLE_CONNS")

	str(&c.Redis.Addr, "REDIS_ADDR", "REDIS_URI", "REDIS_URL")

	str(&c.Mongo.URI, "MONGO_URI")
	str(&c.Mongo.Database, "MONGO_DB")

	str(&c.Auth.JWTSecret, "JWT_SECRET")
	str(&c.Auth.RefreshSecret, "JWT_REFRESH_SECRET")
	str(&c.Auth.Issuer, "JWT_ISSUER")
	duration(&c.Auth.AccessTTL, "ACCESS_TOKEN_TTL")
	duration(&c.Auth.RefreshTTL, "REFRESH_TOKEN_TTL")
	duration(&c.Auth.ResetTTL, "RESET_TOKEN_TTL")
	boolean(&c.Auth.ExposeResetToken, "EXPOSE_RESET_TOKEN")

	str(&c.GCS.Bucket, "GCS_BUCKET")
	str(&c.GCS.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	boolean(&c.GCS.PublicRead, "GCS_PUBLIC_READ")

	str(&c.Workers.EventStream, "EVENT_STREAM")
	integer(&c.Workers.EventWorkers, "EVENT_WORKERS")
	integer(&c.Workers.EventMaxAttempts, "EVENT_MAX_ATTEMPTS")
	str(&c.Workers.ExpirySchedule, "EXPIRY_SCHEDULE")

	return errors.Join(errs...)
}
