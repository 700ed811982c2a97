package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Session      SessionConfig
	Notification NotificationConfig
	Kafka        KafkaConfig
	Tickets      TicketConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSAllowedOrigins    []string
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
	Addr               string
	Password           string
	DB                 int
	DialTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	VerifyEmailTTLMinutes   int
	BcryptCost              int
	BootstrapAdminEmail     string
	BootstrapAdminPassword  string
}

// SessionConfig controls server-side session storage.
type SessionConfig struct {
	KeyPrefix  string
	TTLMinutes int
}

// NotificationConfig configures outbound notifications.
type NotificationConfig struct {
	EmailFrom             string
	WebhookURL            string
	WebhookTimeoutSeconds int
}

// KafkaConfig enables forwarding ticket events to a broker.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// TicketConfig holds ticket catalog settings.
type TicketConfig struct {
	OptionsFile string
}

const devJWTSecret = "dev-secret"

// Load reads configuration from the environment, after merging a .env
// file when one exists, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisCfg, err := loadRedis()
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		App:          loadApp(),
		Postgres:     loadPostgres(),
		Redis:        redisCfg,
		Logger:       LoggerConfig{Level: getEnv("LOG_LEVEL", "info"), Format: os.Getenv("LOG_FORMAT")},
		Auth:         loadAuth(),
		Session:      SessionConfig{KeyPrefix: getEnv("SESSION_KEY_PREFIX", "helpdesk:session:"), TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60)},
		Notification: loadNotification(),
		Kafka:        KafkaConfig{Brokers: getEnvAsList("KAFKA_BROKERS", nil), Topic: getEnv("KAFKA_TOPIC", "helpdesk.ticket-events")},
		Tickets:      TicketConfig{OptionsFile: os.Getenv("TICKET_OPTIONS_FILE")},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadApp() AppConfig {
	return AppConfig{
		Name:                  getEnv("APP_NAME", "helpdesk"),
		Env:                   getEnv("APP_ENV", "development"),
		Host:                  getEnv("APP_HOST", "0.0.0.0"),
		Port:                  getEnv("APP_PORT", "8080"),
		Version:               getEnv("APP_VERSION", "dev"),
		RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		CORSAllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}
}

func loadPostgres() PostgresConfig {
	return PostgresConfig{
		DSN:            os.Getenv("POSTGRES_DSN"),
		MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
		MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
		RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
		ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
		ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
	}
}

func loadRedis() (RedisConfig, error) {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	return RedisConfig{
		Addr:               getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		Password:           os.Getenv("REDIS_PASSWORD"),
		DB:                 db,
		DialTimeoutSeconds: getEnvAsInt("REDIS_DIAL_TIMEOUT_SECONDS", 5),
	}, nil
}

func loadAuth() AuthConfig {
	return AuthConfig{
		JWTSecret:               getEnv("AUTH_JWT_SECRET", devJWTSecret),
		AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
		VerifyEmailTTLMinutes:   getEnvAsInt("AUTH_VERIFY_EMAIL_TTL_MINUTES", 24*60),
		BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		BootstrapAdminEmail:     os.Getenv("AUTH_BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword:  os.Getenv("AUTH_BOOTSTRAP_ADMIN_PASSWORD"),
	}
}

func loadNotification() NotificationConfig {
	return NotificationConfig{
		EmailFrom:             getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
		WebhookURL:            os.Getenv("NOTIFY_WEBHOOK_URL"),
		WebhookTimeoutSeconds: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 5),
	}
}

// Validate rejects settings the service cannot run with. Production
// additionally refuses the built-in JWT secret.
func (c *Config) Validate() error {
	var problems []string
	if port, err := strconv.Atoi(c.App.Port); err != nil || port <= 0 || port > 65535 {
		problems = append(problems, fmt.Sprintf("APP_PORT %q is not a valid port", c.App.Port))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		problems = append(problems, "AUTH_JWT_SECRET must not be empty")
	} else if c.App.IsProduction() && c.Auth.JWTSecret == devJWTSecret {
		problems = append(problems, "AUTH_JWT_SECRET must be set in production")
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		problems = append(problems, "AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	if (c.Auth.BootstrapAdminEmail == "") != (c.Auth.BootstrapAdminPassword == "") {
		problems = append(problems, "AUTH_BOOTSTRAP_ADMIN_EMAIL and AUTH_BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
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

// DialTimeout returns the connect timeout, zero meaning the client default.
func (r RedisConfig) DialTimeout() time.Duration {
	if r.DialTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(r.DialTimeoutSeconds) * time.Second
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
