package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# AlgoTradeEngine Configuration

[server]
# HTTP listen address for the webhook/alert server
addr = ":8080"
# Graceful shutdown timeout (e.g. "10s")
shutdown_timeout = "10s"

[broker]
# Angel One SmartAPI base URL
base_url = "https://apiconnect.angelone.in/rest"
# Shared timeout for every upstream call, including the post-refresh retry
timeout = "10s"
client_local_ip = "127.0.0.1"
client_public_ip = "127.0.0.1"
mac_address = "00:00:00:00:00:00"

[alerts]
# SQLite database for received alerts
db_path = ""
# Exchange assumed when an alert omits one
default_exchange = "NSE"
# Quantity assumed when an alert omits one (clamped to >= 1)
default_quantity = 1

[notifications]
enabled = false

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""
`

const credentialsTemplate = `# AlgoTradeEngine Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[angel]
api_key = ""
client_code = ""
pin = ""
# Optional: TOTP secret for auto-generated login codes
totp_secret = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}
	return nil
}
