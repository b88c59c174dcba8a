// Package config provides configuration management for the trading gateway.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/BooraVinay/AlgoTradeEngine/internal/security"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Broker        BrokerConfig       `mapstructure:"broker"`
	Alerts        AlertsConfig       `mapstructure:"alerts"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Credentials   Credentials        `mapstructure:"-"` // Loaded separately
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BrokerConfig holds upstream broker API configuration.
type BrokerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds every upstream exchange, including the single retried
	// call after a token refresh. The upstream contract gives no guidance,
	// so one conservative shared value covers both attempts.
	Timeout        time.Duration `mapstructure:"timeout"`
	ClientLocalIP  string        `mapstructure:"client_local_ip"`
	ClientPublicIP string        `mapstructure:"client_public_ip"`
	MACAddress     string        `mapstructure:"mac_address"`
}

// AlertsConfig holds alert store configuration.
type AlertsConfig struct {
	DBPath          string `mapstructure:"db_path"`
	DefaultExchange string `mapstructure:"default_exchange"`
	DefaultQuantity int    `mapstructure:"default_quantity"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Credentials holds API credentials.
type Credentials struct {
	Angel AngelCredentials `mapstructure:"angel"`
}

// AngelCredentials holds Angel One SmartAPI credentials.
type AngelCredentials struct {
	APIKey     string `mapstructure:"api_key"`
	ClientCode string `mapstructure:"client_code"`
	PIN        string `mapstructure:"pin"`
	TOTPSecret string `mapstructure:"totp_secret"` // For auto-generated TOTP at login
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/algotrade"
	}
	return filepath.Join(home, ".config", "algotrade")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	if err := loadEncryptedCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.enc: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

// EncryptedCredentialsFile is the name of the sealed credential vault inside
// the config directory. When present it takes precedence over the plaintext
// credentials.toml and requires ANGEL_MASTER_KEY to unlock.
const EncryptedCredentialsFile = "credentials.enc"

func loadEncryptedCredentials(configDir string, creds *Credentials) error {
	path := filepath.Join(configDir, EncryptedCredentialsFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	passphrase := os.Getenv("ANGEL_MASTER_KEY")
	if passphrase == "" {
		return fmt.Errorf("%s exists but ANGEL_MASTER_KEY is not set", EncryptedCredentialsFile)
	}
	return security.LoadVault(path, passphrase, creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ANGEL_API_KEY"); v != "" {
		cfg.Credentials.Angel.APIKey = v
	}
	if v := os.Getenv("ANGEL_CLIENT_CODE"); v != "" {
		cfg.Credentials.Angel.ClientCode = v
	}
	if v := os.Getenv("ANGEL_PIN"); v != "" {
		cfg.Credentials.Angel.PIN = v
	}
	if v := os.Getenv("ANGEL_TOTP_SECRET"); v != "" {
		cfg.Credentials.Angel.TOTPSecret = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Broker.BaseURL == "" {
		cfg.Broker.BaseURL = "https://apiconnect.angelone.in/rest"
	}
	if cfg.Broker.Timeout == 0 {
		cfg.Broker.Timeout = 10 * time.Second
	}
	if cfg.Broker.ClientLocalIP == "" {
		cfg.Broker.ClientLocalIP = "127.0.0.1"
	}
	if cfg.Broker.ClientPublicIP == "" {
		cfg.Broker.ClientPublicIP = "127.0.0.1"
	}
	if cfg.Broker.MACAddress == "" {
		cfg.Broker.MACAddress = "00:00:00:00:00:00"
	}
	if cfg.Alerts.DBPath == "" {
		cfg.Alerts.DBPath = filepath.Join(DefaultConfigDir(), "alerts.db")
	}
	if cfg.Alerts.DefaultExchange == "" {
		cfg.Alerts.DefaultExchange = "NSE"
	}
	if cfg.Alerts.DefaultQuantity < 1 {
		cfg.Alerts.DefaultQuantity = 1
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Broker.Timeout < time.Second {
		return fmt.Errorf("broker timeout must be at least 1s, got %s", c.Broker.Timeout)
	}
	if c.Alerts.DefaultExchange != "NSE" && c.Alerts.DefaultExchange != "BSE" {
		return fmt.Errorf("invalid default exchange: %s (must be NSE or BSE)", c.Alerts.DefaultExchange)
	}
	if c.Notifications.Telegram.Enabled && c.Notifications.Telegram.BotToken == "" {
		return fmt.Errorf("telegram notifications enabled but bot_token is empty")
	}
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("webhook notifications enabled but url is empty")
	}
	return nil
}

// HasBrokerCredentials reports whether broker credentials are configured.
func (c *Config) HasBrokerCredentials() bool {
	return c.Credentials.Angel.APIKey != "" && c.Credentials.Angel.ClientCode != ""
}
