package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service. It is built once
// at startup and treated as read-only afterwards.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	OAuth    OAuthConfig
	Registry RegistryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// OAuthConfig defines token issuance parameters. TokenSecretKey has no
// default: the service must not start without a signing key.
type OAuthConfig struct {
	ClientID               string
	ClientSecret           string
	TokenSecretKey         string
	TokenAlgorithm         string
	AccessTokenExpireMins  int
	RefreshTokenExpireDays int
	GrantTypes             []string
}

// RegistryConfig selects which database tables are exposed as resources.
type RegistryConfig struct {
	Tables []string
}

var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

var knownGrantTypes = map[string]struct{}{
	"password":      {},
	"refresh_token": {},
}

// Load reads configuration from environment variables, applying defaults
// where possible and failing fast on invalid or missing required values. A
// malformed numeric or boolean value is an error, not a silent default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var p envParser
	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "resource-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: p.intVal("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(p.intVal("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(p.intVal("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  p.boolVal("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(p.intVal("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(p.intVal("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       p.intVal("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		OAuth: OAuthConfig{
			ClientID:               getEnv("CLIENT_ID", "resource-gateway-client"),
			ClientSecret:           getEnv("CLIENT_SECRET", "resource-gateway-secret"),
			TokenSecretKey:         os.Getenv("TOKEN_SECRET_KEY"),
			TokenAlgorithm:         getEnv("TOKEN_ALGORITHM", "HS256"),
			AccessTokenExpireMins:  p.intVal("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
			RefreshTokenExpireDays: p.intVal("REFRESH_TOKEN_EXPIRE_DAYS", 30),
			GrantTypes:             getEnvAsList("GRANT_TYPES", []string{"password", "refresh_token"}),
		},
		Registry: RegistryConfig{
			Tables: getEnvAsList("RESOURCE_TABLES", nil),
		},
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.OAuth.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o OAuthConfig) validate() error {
	if o.TokenSecretKey == "" {
		return fmt.Errorf("TOKEN_SECRET_KEY is required")
	}
	if _, ok := supportedAlgorithms[o.TokenAlgorithm]; !ok {
		return fmt.Errorf("unsupported TOKEN_ALGORITHM %q", o.TokenAlgorithm)
	}
	if o.AccessTokenExpireMins <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if o.RefreshTokenExpireDays <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	if len(o.GrantTypes) == 0 {
		return fmt.Errorf("GRANT_TYPES must enable at least one grant")
	}
	for _, g := range o.GrantTypes {
		if _, ok := knownGrantTypes[g]; !ok {
			return fmt.Errorf("unknown grant type %q in GRANT_TYPES", g)
		}
	}
	return nil
}

// GrantAllowed reports whether the named grant flow is enabled.
func (o OAuthConfig) GrantAllowed(grant string) bool {
	for _, g := range o.GrantTypes {
		if g == grant {
			return true
		}
	}
	return false
}

// AccessTokenTTL returns the access token lifetime.
func (o OAuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(o.AccessTokenExpireMins) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (o OAuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(o.RefreshTokenExpireDays) * 24 * time.Hour
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// envParser reads typed environment values and records the first parse
// failure so Load can reject a malformed environment instead of silently
// substituting defaults.
type envParser struct {
	err error
}

func (p *envParser) intVal(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		p.fail(key, val)
		return fallback
	}
	return parsed
}

func (p *envParser) boolVal(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		p.fail(key, val)
		return fallback
	}
	return parsed
}

func (p *envParser) fail(key, val string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %q", key, val)
	}
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
