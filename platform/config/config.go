// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// MigrationConfig provides settings for schema migrations.
type MigrationConfig interface {
	DatabaseConfig
	GetMigrationsDir() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetWebhookRateLimit() float64
	GetWebhookRateBurst() int
}

// WebhookConfig provides the secrets used by the messaging webhook.
type WebhookConfig interface {
	GetWebhookVerifyToken() string
	GetWebhookAppSecret() string
	GetDedupCapacity() int
}

// WhatsAppConfig provides settings for the outbound messaging gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppPhoneNumberID() string
	GetWhatsAppAccessToken() string
	GetWhatsAppTimeout() time.Duration
}

// PhoneConfig provides settings for phone number normalization and lookup.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
	GetDemoPhone() string
}

// SessionConfig provides settings for the in-memory conversation sessions.
type SessionConfig interface {
	GetSessionTTL() time.Duration
	GetSessionSweepInterval() time.Duration
}

// NotificationConfig provides settings for staff notifications.
type NotificationConfig interface {
	GetStaffDirectoryFile() string
	GetStaffDirectory() string
	GetNotifySendDelay() time.Duration
	GetOutboxBuffer() int
}

// SMTPConfig provides settings for staff email copies.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromAddress() string
	GetSMTPFromName() string
	IsSMTPEnabled() bool
}

// SchedulerConfig provides settings for the asynq-backed outbox transport.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// OfficeConfig provides the contact details shown to tenants.
type OfficeConfig interface {
	GetOfficePhone() string
	GetOfficeHours() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	MigrationsDir        string
	WebhookVerifyToken   string
	WebhookAppSecret     string
	WebhookRateLimit     float64
	WebhookRateBurst     int
	DedupCapacity        int
	WhatsAppURL          string
	WhatsAppPhoneNumber  string
	WhatsAppAccessToken  string
	WhatsAppTimeout      time.Duration
	PhoneDefaultRegion   string
	DemoPhone            string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	StaffDirectoryFile   string
	StaffDirectory       string
	NotifySendDelay      time.Duration
	OutboxBuffer         int
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	SMTPFromAddress      string
	SMTPFromName         string
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	OfficePhone          string
	OfficeHours          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string   { return c.DatabaseURL }
func (c *Config) GetMigrationsDir() string { return c.MigrationsDir }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string          { return c.HTTPAddr }
func (c *Config) GetWebhookRateLimit() float64 { return c.WebhookRateLimit }
func (c *Config) GetWebhookRateBurst() int     { return c.WebhookRateBurst }

// WebhookConfig implementation
func (c *Config) GetWebhookVerifyToken() string { return c.WebhookVerifyToken }
func (c *Config) GetWebhookAppSecret() string   { return c.WebhookAppSecret }
func (c *Config) GetDedupCapacity() int         { return c.DedupCapacity }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string            { return c.WhatsAppURL }
func (c *Config) GetWhatsAppPhoneNumberID() string  { return c.WhatsAppPhoneNumber }
func (c *Config) GetWhatsAppAccessToken() string    { return c.WhatsAppAccessToken }
func (c *Config) GetWhatsAppTimeout() time.Duration { return c.WhatsAppTimeout }

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }
func (c *Config) GetDemoPhone() string          { return c.DemoPhone }

// SessionConfig implementation
func (c *Config) GetSessionTTL() time.Duration           { return c.SessionTTL }
func (c *Config) GetSessionSweepInterval() time.Duration { return c.SessionSweepInterval }

// NotificationConfig implementation
func (c *Config) GetStaffDirectoryFile() string     { return c.StaffDirectoryFile }
func (c *Config) GetStaffDirectory() string         { return c.StaffDirectory }
func (c *Config) GetNotifySendDelay() time.Duration { return c.NotifySendDelay }
func (c *Config) GetOutboxBuffer() int              { return c.OutboxBuffer }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFromAddress != ""
}

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// OfficeConfig implementation
func (c *Config) GetOfficePhone() string { return c.OfficePhone }
func (c *Config) GetOfficeHours() string { return c.OfficeHours }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		MigrationsDir:        getEnv("MIGRATIONS_DIR", "migrations"),
		WebhookVerifyToken:   getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		WebhookAppSecret:     getEnv("WEBHOOK_APP_SECRET", ""),
		WebhookRateLimit:     mustFloat(getEnv("WEBHOOK_RATE_LIMIT", "0")),
		WebhookRateBurst:     mustInt(getEnv("WEBHOOK_RATE_BURST", "0")),
		DedupCapacity:        mustInt(getEnv("WEBHOOK_DEDUP_CAPACITY", "1000")),
		WhatsAppURL:          getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v21.0"),
		WhatsAppPhoneNumber:  getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAccessToken:  getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppTimeout:      mustDuration(getEnv("WHATSAPP_TIMEOUT", "10s")),
		PhoneDefaultRegion:   strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "SA")),
		DemoPhone:            getEnv("CLIENT_DEMO_PHONE", ""),
		SessionTTL:           mustDuration(getEnv("SESSION_TTL", "30m")),
		SessionSweepInterval: mustDuration(getEnv("SESSION_SWEEP_INTERVAL", "5m")),
		StaffDirectoryFile:   getEnv("STAFF_DIRECTORY_FILE", ""),
		StaffDirectory:       getEnv("STAFF_DIRECTORY", ""),
		NotifySendDelay:      mustDuration(getEnv("NOTIFY_SEND_DELAY", "1s")),
		OutboxBuffer:         mustInt(getEnv("OUTBOX_BUFFER", "256")),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		SMTPFromAddress:      getEnv("SMTP_FROM_ADDRESS", ""),
		SMTPFromName:         getEnv("SMTP_FROM_NAME", "Property Services"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "notifications"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		OfficePhone:          getEnv("OFFICE_PHONE", ""),
		OfficeHours:          getEnv("OFFICE_HOURS", "Sun-Thu 09:00-17:00"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.WebhookVerifyToken == "" {
		return fmt.Errorf("WEBHOOK_VERIFY_TOKEN is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be a positive duration")
	}
	if c.DedupCapacity < 1 {
		return fmt.Errorf("WEBHOOK_DEDUP_CAPACITY must be at least 1")
	}
	if c.SMTPHost != "" && c.SMTPFromAddress == "" {
		return fmt.Errorf("SMTP_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}
