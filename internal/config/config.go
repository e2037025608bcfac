package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"surveypay-settlement-go/internal/models"

	"gopkg.in/yaml.v2"
)

const defaultGatewayBaseURL = "https://api.chapa.co/v1"

// Load builds the application configuration from the environment. The
// gateway secret key, webhook secret and callback/return URLs are required
// for settlement correctness; their absence is an explicit error, never a
// silent default.
func Load() (*models.Config, error) {
	secretKey := os.Getenv("GATEWAY_SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("GATEWAY_SECRET_KEY is required")
	}
	webhookSecret := os.Getenv("WEBHOOK_SECRET")
	if webhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required")
	}
	callbackURL := os.Getenv("CALLBACK_URL")
	if callbackURL == "" {
		return nil, fmt.Errorf("CALLBACK_URL is required")
	}
	returnURL := os.Getenv("RETURN_URL")
	if returnURL == "" {
		return nil, fmt.Errorf("RETURN_URL is required")
	}

	gatewayTimeout, err := getEnvDuration("GATEWAY_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}
	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	pollingInterval, err := getEnvDuration("RECONCILER_POLLING_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	lookbackWindow, err := getEnvDuration("RECONCILER_LOOKBACK_WINDOW", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	gateway := models.GatewayConfig{
		BaseURL:     getEnvString("GATEWAY_BASE_URL", defaultGatewayBaseURL),
		SecretKey:   secretKey,
		CallbackURL: callbackURL,
		ReturnURL:   returnURL,
		Timeout:     gatewayTimeout,
	}

	// An optional YAML file can override non-secret gateway settings.
	if settingsFile := os.Getenv("GATEWAY_SETTINGS_FILE"); settingsFile != "" {
		if err := applyGatewayFile(&gateway, settingsFile); err != nil {
			return nil, err
		}
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "surveypay.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			CreateDemoData:  getEnvBool("CREATE_DEMO_DATA", false),
		},
		Gateway: gateway,
		Webhook: models.WebhookConfig{
			Secret: webhookSecret,
		},
		Server: models.ServerConfig{
			ListenAddr: getEnvString("LISTEN_ADDR", ":8080"),
		},
		Reconciler: models.ReconcilerConfig{
			Enabled:         getEnvBool("RECONCILER_ENABLED", true),
			PollingInterval: pollingInterval,
			LookbackWindow:  lookbackWindow,
			BatchSize:       getEnvInt("RECONCILER_BATCH_SIZE", 50),
		},
	}, nil
}

func applyGatewayFile(gateway *models.GatewayConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read gateway settings file %s: %w", path, err)
	}
	var settings models.GatewayFileSettings
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return fmt.Errorf("invalid gateway settings file %s: %w", path, err)
	}
	if settings.BaseURL != "" {
		gateway.BaseURL = settings.BaseURL
	}
	if settings.Timeout != "" {
		timeout, err := time.ParseDuration(settings.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in gateway settings file: %q (%w)", settings.Timeout, err)
		}
		gateway.Timeout = timeout
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
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
