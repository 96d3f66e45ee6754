package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	id "warranty/pkg/domain"
)

// Config captures process-level configuration. Empty backend URLs select the
// in-memory adapters so the service runs with no infrastructure.
type Config struct {
	Server   Server
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Auth     AuthConfig

	LogLevel          string
	ReconcileInterval time.Duration
	RateLimitDisabled bool
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type StorageConfig struct {
	Bucket        string
	PublicBaseURL string
	Region        string
	// Endpoint overrides the S3 endpoint (LocalStack, MinIO).
	Endpoint string
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	JWKSURL       string
	RoleCacheTTL  time.Duration
	// AdminUserIDs seeds the in-memory role source.
	AdminUserIDs []id.UserID
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:            getenv("WARRANTY_ADDR", ":8080"),
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getenv("AUDIT_TOPIC", "warranty.audit"),
		},
		Storage: StorageConfig{
			Bucket:        os.Getenv("S3_BUCKET"),
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
			Region:        getenv("AWS_REGION", "us-east-1"),
			Endpoint:      os.Getenv("AWS_ENDPOINT_URL"),
		},
		Auth: AuthConfig{
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			JWTIssuer:     os.Getenv("JWT_ISSUER"),
			JWKSURL:       os.Getenv("JWKS_URL"),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Auth.RoleCacheTTL, err = durationEnv("ROLE_CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = durationEnv("RECONCILE_INTERVAL", 0); err != nil {
		return Config{}, err
	}
	for _, raw := range splitList(os.Getenv("ADMIN_USER_IDS")) {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return Config{}, fmt.Errorf("ADMIN_USER_IDS: %w", err)
		}
		cfg.Auth.AdminUserIDs = append(cfg.Auth.AdminUserIDs, userID)
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_DISABLED")); raw != "" {
		if cfg.RateLimitDisabled, err = strconv.ParseBool(raw); err != nil {
			return Config{}, fmt.Errorf("RATE_LIMIT_DISABLED: %w", err)
		}
	}
	if n, ok, err := intEnv("DATABASE_MAX_OPEN_CONNS"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Postgres.MaxOpenConns = n
	}

	if cfg.Auth.JWTSigningKey == "" && cfg.Auth.JWKSURL == "" {
		// Development default; production sets JWKS_URL or a real key.
		cfg.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// splitList splits a comma-separated value, dropping blanks and repeats.
// Order is preserved.
func splitList(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}
