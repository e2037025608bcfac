package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Gateway    GatewayConfig
	Webhook    WebhookConfig
	Server     ServerConfig
	Reconciler ReconcilerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	CreateDemoData  bool
}

// GatewayConfig holds payment provider settings. SecretKey, CallbackURL and
// ReturnURL are required; configuration loading fails when they are absent.
type GatewayConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	ReturnURL   string
	Timeout     time.Duration
}

// WebhookConfig holds the shared secret used to authenticate provider webhooks.
type WebhookConfig struct {
	Secret string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr string
}

// ReconcilerConfig holds pending-payment reconciler settings
type ReconcilerConfig struct {
	Enabled         bool
	PollingInterval time.Duration
	LookbackWindow  time.Duration
	BatchSize       int
}

// GatewayFileSettings is the optional YAML settings file that overrides
// gateway base URL and timeout (GATEWAY_SETTINGS_FILE).
type GatewayFileSettings struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}
