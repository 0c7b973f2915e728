package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all process-wide settings. It is built once at startup and
// threaded explicitly into every component; business logic never reads the
// environment directly.
type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	OAuth       OAuthConfig
	SMTP        SMTPConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MigrateOnStart bool
}

type RedisConfig struct {
	URL      string
	PoolSize int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

type AuthConfig struct {
	JWTSecret      string
	OTPPepper      string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	CodeTTL        time.Duration
	ResendWindow   time.Duration
	MaxVerifyTries int
}

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type OAuthConfig struct {
	Google   OAuthProviderConfig
	Facebook OAuthProviderConfig
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type CORSConfig struct {
	AllowedOrigin string
}

// Load reads .env (if present) and the environment into a Config.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 5000),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       getEnvInt("DATABASE_MAX_CONNS", 10),
			MigrateOnStart: getEnvBool("DATABASE_MIGRATE_ON_START", true),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 20),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "auth-events"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			OTPPepper:      getEnv("OTP_PEPPER", ""),
			AccessTTL:      getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTTL:     getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			CodeTTL:        getEnvDuration("OTP_CODE_TTL", 5*time.Minute),
			ResendWindow:   getEnvDuration("OTP_RESEND_WINDOW", 60*time.Second),
			MaxVerifyTries: getEnvInt("OTP_MAX_VERIFY_TRIES", 5),
		},
		OAuth: OAuthConfig{
			Google: OAuthProviderConfig{
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				CallbackURL:  getEnv("GOOGLE_CALLBACK_URL", ""),
			},
			Facebook: OAuthProviderConfig{
				ClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
				ClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
				CallbackURL:  getEnv("FACEBOOK_CALLBACK_URL", ""),
			},
		},
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: getEnvInt("SMTP_PORT", 587),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", ""),
		},
		CORS: CORSConfig{
			AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		},
	}
	cfg.Kafka.Enabled = len(cfg.Kafka.Brokers) > 0

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.Auth.OTPPepper == "" {
		return fmt.Errorf("OTP_PEPPER is required in production")
	}
	return nil
}

// IsProduction gates behavior such as echoing debug codes to the caller.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
