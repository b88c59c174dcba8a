package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BooraVinay/AlgoTradeEngine/internal/alerts"
	"github.com/BooraVinay/AlgoTradeEngine/internal/httpserver"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/stream"
	"github.com/BooraVinay/AlgoTradeEngine/internal/trading"
)

// addServeCommand adds the HTTP gateway server command.
func addServeCommand(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway server",
		Long: `Run the webhook and order gateway.

The server ingests TradingView alerts on /webhook/alert, exposes the alert
review surface under /v1/alerts, and forwards order operations to Angel One
SmartAPI for logged-in sessions.`,
		Example: `  algotrade serve
  algotrade serve --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Client == nil {
				return fmt.Errorf("broker not configured, add credentials to credentials.toml")
			}
			if app.Store == nil {
				return fmt.Errorf("alert store unavailable")
			}

			serverCfg := app.Config.Server
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				serverCfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hub := stream.NewHub()
			hub.Start(ctx)
			defer hub.Stop()

			registry := httpserver.NewSessionRegistry()
			executor := trading.NewExecutor(app.Client, app.Store, app.Notifier, app.Logger)
			handler := httpserver.NewHandler(httpserver.HandlerDeps{
				Client:      app.Client,
				Store:       app.Store,
				Executor:    executor,
				Registry:    registry,
				Notifier:    app.Notifier,
				Hub:         hub,
				Credentials: app.Config.Credentials.Angel,
				Defaults: alerts.Defaults{
					Exchange: models.Exchange(app.Config.Alerts.DefaultExchange),
					Quantity: app.Config.Alerts.DefaultQuantity,
				},
				Logger: app.Logger,
			})
			server := httpserver.NewServer(serverCfg, handler, registry, app.Logger)
			return server.Run(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	rootCmd.AddCommand(cmd)
}
