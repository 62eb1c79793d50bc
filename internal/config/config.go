package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration. It is loaded once at startup
// and passed into components as an immutable value; nothing reads ambient
// process state after that.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	Security SecurityConfig
	Webhook  WebhookConfig
	Mail     MailConfig
	Agenda   AgendaConfig
	AI       AIConfig
	Google   GoogleConfig
	Sweep    SweepConfig
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConnections int
	ConnectTimeout time.Duration
	MigrationsPath string
}

// RedisConfig represents Redis configuration (webhook rate limiting)
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json, text
}

// SecurityConfig represents operator API security configuration
type SecurityConfig struct {
	JWTSecret            string
	JWTExpiration        time.Duration
	OperatorEmail        string
	OperatorPasswordHash string
	RateLimitEnabled     bool
	RateLimitRequests    int
	RateLimitWindow      time.Duration
}

// WebhookConfig represents webhook ingestion configuration
type WebhookConfig struct {
	SharedSecret    string
	SignatureHeader string
}

// MailConfig represents email integration configuration
type MailConfig struct {
	FollowupLabel  string
	ProcessedLabel string
	NotifyAddress  string
}

// AgendaConfig bounds context gathering and agenda generation
type AgendaConfig struct {
	CorrespondenceWindow time.Duration
	ThreadCap            int
	BodyTruncateChars    int
	Lookahead            time.Duration
}

// AIConfig represents the completion service configuration
type AIConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
	MockMode        bool
}

// GoogleConfig represents Google Workspace client configuration
type GoogleConfig struct {
	CredentialsFile string
	ImpersonateUser string
}

// SweepConfig represents the reconciliation sweep trigger configuration.
// Business hours are enforced here, at the trigger boundary, never inside
// the orchestrator.
type SweepConfig struct {
	Window             time.Duration
	Schedule           string
	AgendaSchedule     string
	OutlookSchedule    string
	BusinessHoursStart int
	BusinessHoursEnd   int
	Timezone           string
}

// Load loads configuration from environment variables and defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", ""),
			DBName:         getEnv("DB_NAME", "clientpulse"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvInt("DB_MAX_CONNECTIONS", 20),
			ConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			JWTSecret:            getEnv("JWT_SECRET", ""),
			JWTExpiration:        getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
			OperatorEmail:        getEnv("OPERATOR_EMAIL", ""),
			OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
			RateLimitEnabled:     getEnvBool("RATE_LIMIT_ENABLED", false),
			RateLimitRequests:    getEnvInt("RATE_LIMIT_REQUESTS", 100),
			RateLimitWindow:      getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Webhook: WebhookConfig{
			SharedSecret:    getEnv("WEBHOOK_SHARED_SECRET", ""),
			SignatureHeader: getEnv("WEBHOOK_SIGNATURE_HEADER", "X-Webhook-Signature"),
		},
		Mail: MailConfig{
			FollowupLabel:  getEnv("MAIL_FOLLOWUP_LABEL", "clientpulse/followup"),
			ProcessedLabel: getEnv("MAIL_PROCESSED_LABEL", "clientpulse/processed"),
			NotifyAddress:  getEnv("MAIL_NOTIFY_ADDRESS", ""),
		},
		Agenda: AgendaConfig{
			CorrespondenceWindow: getEnvDuration("AGENDA_CORRESPONDENCE_WINDOW", 7*24*time.Hour),
			ThreadCap:            getEnvInt("AGENDA_THREAD_CAP", 20),
			BodyTruncateChars:    getEnvInt("AGENDA_BODY_TRUNCATE_CHARS", 500),
			Lookahead:            getEnvDuration("AGENDA_LOOKAHEAD", 24*time.Hour),
		},
		AI: AIConfig{
			APIKey:          getEnv("AI_API_KEY", ""),
			Model:           getEnv("AI_MODEL", "gpt-4o-mini"),
			MaxOutputTokens: getEnvInt("AI_MAX_OUTPUT_TOKENS", 1024),
			Timeout:         getEnvDuration("AI_TIMEOUT", 60*time.Second),
			MockMode:        getEnvBool("AI_MOCK_MODE", false),
		},
		Google: GoogleConfig{
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
			ImpersonateUser: getEnv("GOOGLE_IMPERSONATE_USER", ""),
		},
		Sweep: SweepConfig{
			Window:             getEnvDuration("SWEEP_WINDOW", 24*time.Hour),
			Schedule:           getEnv("SWEEP_SCHEDULE", "*/15 * * * *"),
			AgendaSchedule:     getEnv("AGENDA_SCHEDULE", "0 * * * *"),
			OutlookSchedule:    getEnv("OUTLOOK_SCHEDULE", "0 7 * * MON"),
			BusinessHoursStart: getEnvInt("BUSINESS_HOURS_START", 7),
			BusinessHoursEnd:   getEnvInt("BUSINESS_HOURS_END", 19),
			Timezone:           getEnv("BUSINESS_TIMEZONE", "Local"),
		},
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Agenda.ThreadCap <= 0 {
		return fmt.Errorf("agenda thread cap must be positive")
	}
	if c.Sweep.BusinessHoursStart < 0 || c.Sweep.BusinessHoursEnd > 24 ||
		c.Sweep.BusinessHoursStart >= c.Sweep.BusinessHoursEnd {
		return fmt.Errorf("invalid business hours window")
	}
	if c.IsProduction() {
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("JWT secret must be set in production")
		}
		if !c.AI.MockMode && c.AI.APIKey == "" {
			return fmt.Errorf("AI API key is required outside mock mode")
		}
	}
	return nil
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis host:port address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
