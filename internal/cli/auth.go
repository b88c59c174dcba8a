package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BooraVinay/AlgoTradeEngine/internal/smartapi"
)

// addAuthCommands adds authentication and account commands.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newProfileCmd(app))
	rootCmd.AddCommand(newFundsCmd(app))
	rootCmd.AddCommand(newHoldingsCmd(app))
}

// brokerSession establishes a fresh broker session for the duration of one
// command. Sessions are not persisted between invocations; the TOTP secret
// makes relogin cheap.
func brokerSession(ctx context.Context, app *App, cmd *cobra.Command) (*smartapi.Session, error) {
	if app.Client == nil {
		return nil, fmt.Errorf("broker not configured, add credentials to credentials.toml")
	}

	creds := app.Config.Credentials.Angel
	totpCode, _ := cmd.Flags().GetString("totp")
	if totpCode != "" {
		return app.Client.Login(ctx, creds.ClientCode, totpCode)
	}
	if creds.TOTPSecret == "" {
		return nil, fmt.Errorf("no TOTP secret configured, pass --totp")
	}
	return app.Client.LoginWithTOTPSecret(ctx, creds.ClientCode, creds.TOTPSecret)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func newLoginCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify broker credentials by logging in",
		Long: `Log in to Angel One SmartAPI and print the account profile.

Sessions are not persisted; every command establishes its own session using
the configured TOTP secret. This command verifies that the configured
credentials work.`,
		Example: `  algotrade login
  algotrade login --totp 123456`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				output.Error("Login failed: %v", err)
				return err
			}
			defer app.Client.Logout(ctx, sess)

			profile, err := app.Client.GetProfile(ctx, sess)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(profile)
			}
			output.Success("Login successful")
			output.Printf("  Client:   %s\n", profile.ClientCode)
			output.Printf("  Name:     %s\n", profile.Name)
			output.Printf("  Broker:   %s\n", profile.Broker)
			return nil
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code (default: generated from configured secret)")
	return cmd
}

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the broker account profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			profile, err := app.Client.GetProfile(ctx, sess)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(profile)
			}
			output.Bold("Account Profile")
			output.Printf("  Client:     %s\n", profile.ClientCode)
			output.Printf("  Name:       %s\n", profile.Name)
			output.Printf("  Email:      %s\n", profile.Email)
			output.Printf("  Exchanges:  %v\n", profile.Exchanges)
			output.Printf("  Last login: %s\n", profile.LastLogin)
			return nil
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newFundsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "funds",
		Short: "Show funds and margin limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			data, err := app.Client.GetRMS(ctx, sess)
			if err != nil {
				return err
			}
			return output.JSON(data)
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newHoldingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "Show long-term holdings",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			data, err := app.Client.GetHoldings(ctx, sess)
			if err != nil {
				return err
			}
			return output.JSON(data)
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}
