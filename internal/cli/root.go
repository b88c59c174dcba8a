// Package cli provides the command-line interface for the gateway.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/BooraVinay/AlgoTradeEngine/internal/alerts"
	"github.com/BooraVinay/AlgoTradeEngine/internal/config"
	"github.com/BooraVinay/AlgoTradeEngine/internal/logging"
	"github.com/BooraVinay/AlgoTradeEngine/internal/notify"
	"github.com/BooraVinay/AlgoTradeEngine/internal/security"
	"github.com/BooraVinay/AlgoTradeEngine/internal/smartapi"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Client   *smartapi.Client
	Store    *alerts.Store
	Notifier notify.Notifier
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Notifier: notify.NewMultiNotifier(cfg.Notifications),
	}

	if cfg.HasBrokerCredentials() {
		app.Client = smartapi.NewClient(smartapi.ClientConfig{
			Broker:      cfg.Broker,
			Credentials: cfg.Credentials.Angel,
			Logger:      logger,
		})
		logger.Debug().Msg("SmartAPI client initialized")
	}

	store, err := alerts.NewStore(cfg.Alerts.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open alert store, alert features unavailable")
	} else {
		app.Store = store
		logger.Debug().Str("path", cfg.Alerts.DBPath).Msg("Alert store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "algotrade",
		Short: "AlgoTrade Engine - Angel One SmartAPI trading gateway",
		Long: `AlgoTrade Engine bridges TradingView alerts and the Angel One SmartAPI.

It receives strategy alerts over a webhook, stores them for review, and
places the accepted ones as broker orders. Broker sessions are established
with TOTP-based login and refreshed transparently when they expire.

Use 'algotrade help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/algotrade)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAuthCommands(rootCmd, app)
	addServeCommand(rootCmd, app)
	addAlertCommands(rootCmd, app)
	addOrderCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("AlgoTrade Engine v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "encrypt",
		Short: "Seal broker credentials into an encrypted vault",
		Long: `Seal the loaded credentials into credentials.enc in the config
directory. The vault is encrypted with a key derived from the
ANGEL_MASTER_KEY environment variable; once sealed, the same variable must
be set to load the credentials again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			passphrase := os.Getenv("ANGEL_MASTER_KEY")
			if passphrase == "" {
				return fmt.Errorf("ANGEL_MASTER_KEY must be set")
			}

			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			path := filepath.Join(dir, config.EncryptedCredentialsFile)
			if err := security.SaveVault(path, app.Config.Credentials, passphrase); err != nil {
				return fmt.Errorf("sealing credentials: %w", err)
			}

			output.Success("Credentials sealed to %s", path)
			output.Info("API key: %s", security.Mask(app.Config.Credentials.Angel.APIKey))
			output.Warning("Remove credentials.toml once decryption is verified")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Server")
	output.Printf("  Address:          %s\n", cfg.Server.Addr)
	output.Println()

	output.Bold("Broker")
	output.Printf("  Base URL:         %s\n", cfg.Broker.BaseURL)
	output.Printf("  Timeout:          %s\n", cfg.Broker.Timeout)
	output.Printf("  Credentials:      %v\n", cfg.HasBrokerCredentials())
	output.Println()

	output.Bold("Alerts")
	output.Printf("  Database:         %s\n", cfg.Alerts.DBPath)
	output.Printf("  Default Exchange: %s\n", cfg.Alerts.DefaultExchange)
	output.Printf("  Default Quantity: %d\n", cfg.Alerts.DefaultQuantity)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:          %v\n", cfg.Notifications.Enabled)
	output.Printf("  Webhook:          %v\n", cfg.Notifications.Webhook.Enabled)
	output.Printf("  Telegram:         %v\n", cfg.Notifications.Telegram.Enabled)

	return nil
}
