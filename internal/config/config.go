// Package config loads and validates the Fest backend configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the FEST_ prefix (e.g., FEST_DATABASE_HOST
// overrides database.host in the YAML). This layering allows the same binary to
// run with a config.yaml in local development and with pure environment variables
// in containerized deployments — no recompilation or different binaries needed.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth0     Auth0Config     `mapstructure:"auth0"`
	Tokens    TokensConfig    `mapstructure:"tokens"`
	Mail      MailConfig      `mapstructure:"mail"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	FrontendURL  string        `mapstructure:"frontend_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// Auth0Config holds the Auth0 tenant settings used to verify bearer tokens.
// Domain is the tenant domain without scheme (e.g. fest.eu.auth0.com);
// Audience is the API identifier registered in the tenant.
type Auth0Config struct {
	Domain   string `mapstructure:"domain"`
	Audience string `mapstructure:"audience"`
}

// IssuerURL returns the OIDC issuer URL derived from the tenant domain.
// Auth0 issuers always carry a trailing slash.
func (a *Auth0Config) IssuerURL() string {
	return fmt.Sprintf("https://%s/", a.Domain)
}

// TokensConfig holds the HMAC secrets and lifetimes for locally issued tokens.
// The two flows use separate secrets so an email-confirmation token can never
// be replayed as an invitation token.
type TokensConfig struct {
	EmailConfirmationSecret string        `mapstructure:"email_confirmation_secret"`
	EmailConfirmationTTL    time.Duration `mapstructure:"email_confirmation_ttl"`
	InvitationSecret        string        `mapstructure:"invitation_secret"`
	InvitationTTL           time.Duration `mapstructure:"invitation_ttl"`
	ConfirmationCodeTTL     time.Duration `mapstructure:"confirmation_code_ttl"`
	ConfirmationCodeLength  int           `mapstructure:"confirmation_code_length"`
}

// MailConfig holds outbound mail settings. Provider selects the delivery
// backend: "postmark" (HTTP API) or "smtp".
type MailConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Provider string         `mapstructure:"provider"`
	From     string         `mapstructure:"from"`
	Postmark PostmarkConfig `mapstructure:"postmark"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
}

// PostmarkConfig holds Postmark API settings
type PostmarkConfig struct {
	ServerToken string `mapstructure:"server_token"`
	APIBaseURL  string `mapstructure:"api_base_url"`
}

// SMTPConfig holds outbound mail server configuration
type SMTPConfig struct {
	// Host is the SMTP server hostname (e.g. smtp.postmarkapp.com)
	Host string `mapstructure:"host"`
	// Port is the SMTP server port (587 for STARTTLS, 465 for SMTPS, 25 for plain)
	Port int `mapstructure:"port"`
	// Username for SMTP authentication
	Username string `mapstructure:"username"`
	// Password for SMTP authentication
	Password string `mapstructure:"password"`
	// UseTLS enables STARTTLS (port 587) or implicit TLS (port 465); false = plain SMTP
	UseTLS bool `mapstructure:"use_tls"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
	TLS  TLSConfig  `mapstructure:"tls"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

// TLSConfig holds TLS/HTTPS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// bindEnvVars explicitly binds environment variables to config keys.
// This is necessary because AutomaticEnv() doesn't work well with nested structs during Unmarshal.
// viper.BindEnv only errors when called with zero keys; since every key here is a non-empty
// hardcoded string, any error indicates a programming bug and is surfaced to the caller.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// Server
		"server.host",
		"server.port",
		"server.base_url",
		"server.frontend_url",
		"server.read_timeout",
		"server.write_timeout",

		// Database
		"database.host",
		"database.port",
		"database.name",
		"database.user",
		"database.password",
		"database.ssl_mode",
		"database.max_connections",
		"database.min_idle_connections",

		// Auth0
		"auth0.domain",
		"auth0.audience",

		// Tokens
		"tokens.email_confirmation_secret",
		"tokens.email_confirmation_ttl",
		"tokens.invitation_secret",
		"tokens.invitation_ttl",
		"tokens.confirmation_code_ttl",
		"tokens.confirmation_code_length",

		// Mail
		"mail.enabled",
		"mail.provider",
		"mail.from",
		"mail.postmark.server_token",
		"mail.postmark.api_base_url",
		"mail.smtp.host",
		"mail.smtp.port",
		"mail.smtp.username",
		"mail.smtp.password",
		"mail.smtp.use_tls",

		// Security
		"security.cors.allowed_origins",
		"security.cors.allowed_methods",
		"security.tls.enabled",
		"security.tls.cert_file",
		"security.tls.key_file",

		// Logging
		"logging.level",
		"logging.format",
		"logging.output",

		// Telemetry
		"telemetry.enabled",
		"telemetry.service_name",
		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set config file path if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config.yaml in common locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fest")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
	}

	// Enable environment variable support
	v.SetEnvPrefix("FEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind environment variables for nested structures
	// This is necessary because AutomaticEnv() doesn't work well with Unmarshal()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	// Unmarshal configuration
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand environment variables in sensitive fields
	cfg.Database.Password = expandEnv(cfg.Database.Password)
	cfg.Tokens.EmailConfirmationSecret = expandEnv(cfg.Tokens.EmailConfirmationSecret)
	cfg.Tokens.InvitationSecret = expandEnv(cfg.Tokens.InvitationSecret)
	cfg.Mail.Postmark.ServerToken = expandEnv(cfg.Mail.Postmark.ServerToken)
	cfg.Mail.SMTP.Password = expandEnv(cfg.Mail.SMTP.Password)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "fest")
	v.SetDefault("database.user", "fest")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	// Token defaults
	v.SetDefault("tokens.email_confirmation_ttl", "24h")
	v.SetDefault("tokens.invitation_ttl", "720h")
	v.SetDefault("tokens.confirmation_code_ttl", "1h")
	v.SetDefault("tokens.confirmation_code_length", 6)

	// Mail defaults
	v.SetDefault("mail.enabled", true)
	v.SetDefault("mail.provider", "postmark")
	v.SetDefault("mail.from", "no-reply@fest.dev")
	v.SetDefault("mail.postmark.api_base_url", "https://api.postmarkapp.com")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.use_tls", true)

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("security.tls.enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "fest-backend")
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)
}

// expandEnv expands environment variables in the format ${VAR_NAME}
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.FrontendURL == "" {
		return fmt.Errorf("server.frontend_url is required")
	}

	// Validate database
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}

	// Validate Auth0
	if c.Auth0.Domain == "" {
		return fmt.Errorf("auth0.domain is required")
	}
	if c.Auth0.Audience == "" {
		return fmt.Errorf("auth0.audience is required")
	}

	// Validate token secrets. Missing secrets are fatal here rather than on
	// first use so a misconfigured deployment fails at startup.
	if c.Tokens.EmailConfirmationSecret == "" {
		return fmt.Errorf("tokens.email_confirmation_secret is required")
	}
	if c.Tokens.InvitationSecret == "" {
		return fmt.Errorf("tokens.invitation_secret is required")
	}
	if c.Tokens.ConfirmationCodeLength < 4 {
		return fmt.Errorf("tokens.confirmation_code_length must be at least 4, got %d", c.Tokens.ConfirmationCodeLength)
	}

	// Validate mail provider
	if c.Mail.Enabled {
		switch c.Mail.Provider {
		case "postmark":
			if c.Mail.Postmark.ServerToken == "" {
				return fmt.Errorf("mail.postmark.server_token is required when using the postmark provider")
			}
		case "smtp":
			if c.Mail.SMTP.Host == "" {
				return fmt.Errorf("mail.smtp.host is required when using the smtp provider")
			}
		default:
			return fmt.Errorf("invalid mail provider: %s (must be postmark or smtp)", c.Mail.Provider)
		}
		if c.Mail.From == "" {
			return fmt.Errorf("mail.from is required when mail is enabled")
		}
	}

	// Validate TLS if enabled
	if c.Security.TLS.Enabled {
		if c.Security.TLS.CertFile == "" {
			return fmt.Errorf("security.tls.cert_file is required when TLS is enabled")
		}
		if c.Security.TLS.KeyFile == "" {
			return fmt.Errorf("security.tls.key_file is required when TLS is enabled")
		}
	}

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetAddress returns the server address in host:port format
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
