// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Quota    QuotaConfig
	Business BusinessConfig
	Admin    AdminConfig
	Metrics  MetricsConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
	TrustProxy  bool
	Timezone    string
	RateLimit   int // requests per second per client IP, 0 disables
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	Driver string // sqlite, postgres, memory
	DSN    string
}

// RedisConfig enables the Redis-backed session and OTP store when URL is set.
type RedisConfig struct {
	URL string
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
	Secure     bool
}

// Duration returns the session lifetime.
func (c SessionConfig) Duration() time.Duration {
	return time.Duration(c.MaxAge) * time.Second
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether outgoing mail is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type AuthConfig struct {
	OTPTTL        time.Duration
	ResetTokenTTL time.Duration
	MinPassword   int
}

type QuotaConfig struct {
	FreeDailyChecks int
}

// BusinessConfig holds the details printed in payment instructions.
type BusinessConfig struct {
	Name              string
	BankName          string
	BankAccountNumber string
	BankAccountName   string
	WhatsAppNumber    string
	SupportEmail      string
}

type AdminConfig struct {
	Password  string // bcrypt hash or plaintext; empty disables the admin API
	JWTSecret string
	TokenTTL  time.Duration
}

// Enabled reports whether the admin API is reachable.
func (c AdminConfig) Enabled() bool {
	return c.Password != ""
}

type MetricsConfig struct {
	Enabled bool
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
			TrustProxy:  cmd.Bool("trust-proxy"),
			Timezone:    cmd.String("timezone"),
			RateLimit:   int(cmd.Int("rate-limit")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			Driver: cmd.String("database-driver"),
			DSN:    cmd.String("database-dsn"),
		},
		Redis: RedisConfig{
			URL: cmd.String("redis-url"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-duration")) * 3600,
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
			Secure:     cmd.Bool("cookie-secure"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Auth: AuthConfig{
			OTPTTL:        time.Duration(cmd.Int("otp-ttl")) * time.Minute,
			ResetTokenTTL: time.Duration(cmd.Int("reset-token-ttl")) * time.Minute,
			MinPassword:   int(cmd.Int("min-password-length")),
		},
		Quota: QuotaConfig{
			FreeDailyChecks: int(cmd.Int("free-daily-checks")),
		},
		Business: BusinessConfig{
			Name:              cmd.String("business-name"),
			BankName:          cmd.String("bank-name"),
			BankAccountNumber: cmd.String("bank-account-number"),
			BankAccountName:   cmd.String("bank-account-name"),
			WhatsAppNumber:    cmd.String("whatsapp-number"),
			SupportEmail:      cmd.String("support-email"),
		},
		Admin: AdminConfig{
			Password:  cmd.String("admin-password"),
			JWTSecret: cmd.String("admin-jwt-secret"),
			TokenTTL:  time.Duration(cmd.Int("admin-token-ttl")) * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: cmd.Bool("metrics"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	cfg.Server.BaseURL = strings.TrimSuffix(cfg.Server.BaseURL, "/")

	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	return cfg
}

// Location resolves the configured time zone used for the daily quota.
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Server.Timezone, err)
	}
	return loc, nil
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port

	scheme := "http"
	if cfg.Session.Secure {
		scheme = "https"
	}

	// Hide default ports in URL
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Public base URL, used in password reset links",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.BoolFlag{
			Name:    "trust-proxy",
			Usage:   "Take the client IP from X-Forwarded-For",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TRUST_PROXY"), toml.TOML("server.trust_proxy", configFile)),
		},
		&cli.StringFlag{
			Name:    "timezone",
			Value:   "Africa/Lagos",
			Usage:   "Time zone that defines the calendar day for quotas and premium expiry",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TIMEZONE"), toml.TOML("server.timezone", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit",
			Value:   5,
			Usage:   "Requests per second allowed per client IP (0 disables)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT"), toml.TOML("server.rate_limit", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-driver",
			Value:   "sqlite",
			Usage:   "Storage backend (sqlite, postgres, memory)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DRIVER"), toml.TOML("database.driver", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/cyberguard.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), cli.EnvVar("DATABASE_URL"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for sessions and OTP codes (optional)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_URL"), toml.TOML("redis.url", configFile)),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_cyberguard_session",
			Usage:   "Session cookie name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_COOKIE_NAME"), toml.TOML("session.cookie_name", configFile)),
		},
		&cli.IntFlag{
			Name:    "session-duration",
			Value:   720, // 30 days
			Usage:   "Session lifetime in hours",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_DURATION"), toml.TOML("session.duration", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_HASH_KEY"), toml.TOML("session.hash_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_BLOCK_KEY"), toml.TOML("session.block_key", configFile)),
		},
		&cli.BoolFlag{
			Name:    "cookie-secure",
			Usage:   "Send the session cookie over HTTPS only",
			Sources: cli.NewValueSourceChain(cli.EnvVar("COOKIE_SECURE"), toml.TOML("session.secure", configFile)),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (empty disables outgoing mail)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), cli.EnvVar("SMTP_SERVER"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), cli.EnvVar("SENDER_EMAIL"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), cli.EnvVar("EMAIL_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address (defaults to the SMTP username)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "CyberGuard NG",
			Usage:   "Sender display name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		// Account flags
		&cli.IntFlag{
			Name:    "otp-ttl",
			Value:   10,
			Usage:   "Verification code lifetime in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("OTP_TTL"), toml.TOML("auth.otp_ttl", configFile)),
		},
		&cli.IntFlag{
			Name:    "reset-token-ttl",
			Value:   60,
			Usage:   "Password reset link lifetime in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RESET_TOKEN_TTL"), toml.TOML("auth.reset_token_ttl", configFile)),
		},
		&cli.IntFlag{
			Name:    "min-password-length",
			Value:   6,
			Usage:   "Minimum password length",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MIN_PASSWORD_LENGTH"), toml.TOML("auth.min_password_length", configFile)),
		},
		&cli.IntFlag{
			Name:    "free-daily-checks",
			Value:   5,
			Usage:   "Checks per day for non-premium users",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FREE_DAILY_CHECKS"), toml.TOML("quota.free_daily_checks", configFile)),
		},
		// Business flags
		&cli.StringFlag{
			Name:    "business-name",
			Value:   "CyberGuard NG",
			Usage:   "Business name shown in messages",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BUSINESS_NAME"), toml.TOML("business.name", configFile)),
		},
		&cli.StringFlag{
			Name:    "bank-name",
			Usage:   "Bank that receives premium transfers",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BANK_NAME"), toml.TOML("business.bank_name", configFile)),
		},
		&cli.StringFlag{
			Name:    "bank-account-number",
			Usage:   "Account number for premium transfers",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BANK_ACCOUNT_NUMBER"), toml.TOML("business.bank_account_number", configFile)),
		},
		&cli.StringFlag{
			Name:    "bank-account-name",
			Usage:   "Account name for premium transfers",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BANK_ACCOUNT_NAME"), toml.TOML("business.bank_account_name", configFile)),
		},
		&cli.StringFlag{
			Name:    "whatsapp-number",
			Usage:   "WhatsApp number that receives payment proofs",
			Sources: cli.NewValueSourceChain(cli.EnvVar("WHATSAPP_NUMBER"), toml.TOML("business.whatsapp_number", configFile)),
		},
		&cli.StringFlag{
			Name:    "support-email",
			Usage:   "Support contact address",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SUPPORT_EMAIL"), toml.TOML("business.support_email", configFile)),
		},
		// Admin flags
		&cli.StringFlag{
			Name:    "admin-password",
			Usage:   "Admin password or bcrypt hash (empty disables the admin API)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ADMIN_PASSWORD"), toml.TOML("admin.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "admin-jwt-secret",
			Usage:   "Secret for signing admin tokens (random per process if empty)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ADMIN_JWT_SECRET"), toml.TOML("admin.jwt_secret", configFile)),
		},
		&cli.IntFlag{
			Name:    "admin-token-ttl",
			Value:   12,
			Usage:   "Admin token lifetime in hours",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ADMIN_TOKEN_TTL"), toml.TOML("admin.token_ttl", configFile)),
		},
		&cli.BoolFlag{
			Name:    "metrics",
			Value:   true,
			Usage:   "Expose Prometheus metrics on /metrics",
			Sources: cli.NewValueSourceChain(cli.EnvVar("METRICS_ENABLED"), toml.TOML("metrics.enabled", configFile)),
		},
	}
}
