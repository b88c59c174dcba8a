package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/trading"
)

// addAlertCommands adds the alert review commands.
func addAlertCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Review and act on stored alerts",
	}

	cmd.AddCommand(newAlertsListCmd(app))
	cmd.AddCommand(newAlertsAcceptCmd(app))
	cmd.AddCommand(newAlertsRejectCmd(app))
	cmd.AddCommand(newAlertsToggleCmd(app))

	rootCmd.AddCommand(cmd)
}

func requireStore(app *App) error {
	if app.Store == nil {
		return fmt.Errorf("alert store unavailable")
	}
	return nil
}

func newAlertsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored alerts, newest first",
		Example: `  algotrade alerts list
  algotrade alerts list --status NEW --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()

			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			list, err := app.Store.List(ctx, models.AlertStatus(status), limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list)
			}
			if len(list) == 0 {
				output.Dim("No alerts.")
				return nil
			}
			for _, a := range list {
				line := fmt.Sprintf("%-36s  %-8s  %-4s  %-12s  qty %d", a.ID, a.Status, a.Action, a.Ticker, a.Quantity)
				switch a.Status {
				case models.AlertAccepted:
					output.Success("%s", line)
				case models.AlertFailed, models.AlertRejected:
					output.Dim("%s", line)
				default:
					output.Println(line)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("status", "", "filter by status (NEW, ACCEPTED, REJECTED, FAILED)")
	cmd.Flags().Int("limit", 50, "maximum number of alerts")
	return cmd
}

func newAlertsAcceptCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept <alert-id>",
		Short: "Execute a NEW alert as a broker order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			executor := trading.NewExecutor(app.Client, app.Store, app.Notifier, app.Logger)
			alert, err := executor.AcceptAlert(ctx, sess, args[0])
			if err != nil {
				output.Error("Accept failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(alert)
			}
			output.Success("Alert accepted")
			if alert.OrderResult != nil {
				output.Printf("  Script:   %s\n", alert.OrderResult.Script)
				output.Printf("  Order ID: %s\n", alert.OrderResult.OrderID)
			}
			return nil
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newAlertsRejectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <alert-id>",
		Short: "Reject a NEW alert without placing an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()

			executor := trading.NewExecutor(nil, app.Store, app.Notifier, app.Logger)
			alert, err := executor.RejectAlert(ctx, args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(alert)
			}
			output.Success("Alert %s rejected", alert.ID)
			return nil
		},
	}
}

func newAlertsToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Toggle alert intake on or off",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()

			stopped, err := app.Store.Stopped(ctx)
			if err != nil {
				return err
			}
			if err := app.Store.SetStopped(ctx, !stopped); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"stopped": !stopped})
			}
			if !stopped {
				output.Warning("Alert intake stopped")
			} else {
				output.Success("Alert intake resumed")
			}
			return nil
		},
	}
}
