package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	BaseURL         string
	WebhookSecret   string
	JWTSecret       string
	AdminLogin      string
	AdminPassHash   string
	MigrateOnStart  bool
	ShutdownTimeout time.Duration
	Followup        FollowupConfig
	Ticket          TicketConfig
	SMTP            SMTPConfig
	S3              S3Config
	Logging         LoggingConfig
}

// FollowupConfig drives the worker that flags paid orders whose ticket never went out.
type FollowupConfig struct {
	Interval time.Duration
	MinAge   time.Duration
}

type TicketConfig struct {
	Timezone string
	Subject  string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	RatePerSec float64
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:             getenv("APP_ENV", "dev"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		BaseURL:         strings.TrimRight(getenv("BASE_URL", ""), "/"),
		WebhookSecret:   os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AdminLogin:      os.Getenv("ADMIN_LOGIN"),
		AdminPassHash:   os.Getenv("ADMIN_PASSWORD_HASH"),
		MigrateOnStart:  getenvBool("MIGRATE_ON_START", true),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Followup: FollowupConfig{
			Interval: getenvDuration("FOLLOWUP_INTERVAL", 15*time.Minute),
			MinAge:   getenvDuration("FOLLOWUP_MIN_AGE", 10*time.Minute),
		},
		Ticket: TicketConfig{
			Timezone: getenv("TICKET_TIMEZONE", "Asia/Kolkata"),
			Subject:  getenv("TICKET_SUBJECT", "Your Frutico Ice Cream Ticket 🎫"),
		},
		SMTP: SMTPConfig{
			Host:       os.Getenv("SMTP_HOST"),
			Port:       getenvInt("SMTP_PORT", 587),
			Username:   os.Getenv("SMTP_USERNAME"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			From:       os.Getenv("SMTP_FROM"),
			RatePerSec: getenvFloat("SMTP_RATE_PER_SEC", 5),
		},
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Region:    getenv("S3_REGION", "us-east-1"),
			UseSSL:    getenvBool("S3_USE_SSL", true),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BASE_URL is required")
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.From == "" {
		return nil, fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	if cfg.Followup.Interval <= 0 {
		return nil, fmt.Errorf("FOLLOWUP_INTERVAL must be positive")
	}
	if cfg.Followup.MinAge < 0 {
		return nil, fmt.Errorf("FOLLOWUP_MIN_AGE must not be negative")
	}
	if _, err := time.LoadLocation(cfg.Ticket.Timezone); err != nil {
		return nil, fmt.Errorf("TICKET_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// AdminEnabled reports whether admin login can issue tokens.
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != "" && c.AdminLogin != "" && c.AdminPassHash != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}
