package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	CORS           CORSConfig
	Email          EmailConfig
	RateLimit      RateLimitConfig
	Logging        LoggingConfig
	Tracing        TracingConfig
	AdminBootstrap AdminBootstrapConfig
	Environment    string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
}

// AuthConfig holds session token settings. CookieExpiryDays drives the
// "token" cookie lifetime independently of the token's own expiry.
type AuthConfig struct {
	TokenSecret      string
	TokenExpiry      time.Duration
	CookieExpiryDays int
}

type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

type EmailConfig struct {
	Enabled      bool
	From         string
	ResendAPIKey string
}

type RateLimitConfig struct {
	PublicPerMinute   int
	LoginPer15Minutes int
	TrustedProxyCIDRs []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

type AdminBootstrapConfig struct {
	Name     string
	Email    string
	Password string
}

const minProductionSecretLength = 32

// Load reads configuration from the process environment. A .env file in the
// working directory is loaded first when present; real environment
// variables always win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	tokenExpiry, err := parseExpiry(getEnv("TOKEN_EXPIRY", "90d"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY: %w", err)
	}

	port := getEnvInt("PORT", 0)
	if port == 0 {
		port = getEnvInt("SERVER_PORT", 5000)
	}

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    port,
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:5000"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
		},
		Auth: AuthConfig{
			TokenSecret:      getEnv("TOKEN_SECRET", ""),
			TokenExpiry:      tokenExpiry,
			CookieExpiryDays: getEnvInt("COOKIE_EXPIRES_IN_DAYS", 90),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", false),
			From:         getEnv("EMAIL_FROM", "Zeelus <noreply@zeelus.app>"),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC", 120),
			LoginPer15Minutes: getEnvInt("RATE_LIMIT_LOGIN", 5),
			TrustedProxyCIDRs: splitList(getEnv("TRUSTED_PROXY_CIDRS", "")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "zeelus-server"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Name:     getEnv("ADMIN_NAME", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	origins := splitList(getEnv("CORS_ALLOWED_ORIGINS", ""))
	cfg.CORS = CORSConfig{AllowedOrigins: origins}
	if cfg.Environment != "production" && len(origins) == 0 {
		cfg.CORS.AllowAllOrigins = true
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether cookies must be marked Secure and error
// details hidden from responses.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET is required")
	}
	if c.Auth.TokenExpiry <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY must be positive")
	}
	if c.Auth.CookieExpiryDays <= 0 {
		return fmt.Errorf("COOKIE_EXPIRES_IN_DAYS must be positive")
	}
	if c.IsProduction() {
		if len(c.Auth.TokenSecret) < minProductionSecretLength {
			return fmt.Errorf("TOKEN_SECRET must be at least %d characters in production", minProductionSecretLength)
		}
		if len(c.CORS.AllowedOrigins) == 0 {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
		}
	}
	if c.Email.Enabled && c.Email.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY is required when EMAIL_ENABLED is true")
	}
	return nil
}

// parseExpiry accepts Go durations ("72h") and whole-day values ("90d").
func parseExpiry(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
