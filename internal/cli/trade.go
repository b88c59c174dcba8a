package cli

import (
	"github.com/spf13/cobra"

	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
	"github.com/BooraVinay/AlgoTradeEngine/internal/smartapi"
)

// addOrderCommands adds the order lifecycle commands.
func addOrderCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place and manage broker orders",
	}

	cmd.AddCommand(newOrderPlaceCmd(app))
	cmd.AddCommand(newOrderModifyCmd(app))
	cmd.AddCommand(newOrderCancelCmd(app))
	cmd.AddCommand(newOrderBookCmd(app))
	cmd.AddCommand(newOrderTradesCmd(app))
	cmd.AddCommand(newOrderDetailsCmd(app))

	rootCmd.AddCommand(cmd)
}

func newOrderPlaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place <ticker>",
		Short: "Place an order for a ticker",
		Long: `Place an order. The ticker is resolved to an exchange listing through
the instrument search; pass --token to skip resolution.`,
		Example: `  algotrade order place RELIANCE --qty 1
  algotrade order place INFY --side SELL --qty 10 --type LIMIT --price 1500.50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			side, _ := cmd.Flags().GetString("side")
			qty, _ := cmd.Flags().GetInt("qty")
			orderType, _ := cmd.Flags().GetString("type")
			product, _ := cmd.Flags().GetString("product")
			price, _ := cmd.Flags().GetString("price")
			exchange, _ := cmd.Flags().GetString("exchange")
			token, _ := cmd.Flags().GetString("token")

			symbol := args[0]
			exch := models.Exchange(exchange)
			if token == "" {
				inst, err := app.Client.ResolveInstrument(ctx, sess, exch, symbol)
				if err != nil {
					output.Error("Could not resolve %s: %v", symbol, err)
					return err
				}
				symbol, token, exch = inst.TradingSymbol, inst.SymbolToken, inst.Exchange
			}

			result, err := app.Client.PlaceOrder(ctx, sess, smartapi.OrderRequest{
				TradingSymbol:   symbol,
				SymbolToken:     token,
				TransactionType: models.TransactionType(side),
				Exchange:        exch,
				OrderType:       models.OrderType(orderType),
				ProductType:     models.ProductType(product),
				Price:           price,
				Quantity:        qty,
			})
			if err != nil {
				output.Error("Order failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("Order placed")
			output.Printf("  Symbol:   %s\n", symbol)
			output.Printf("  Order ID: %s\n", result.OrderID)
			return nil
		},
	}
	cmd.Flags().String("side", "BUY", "transaction type (BUY or SELL)")
	cmd.Flags().Int("qty", 1, "order quantity")
	cmd.Flags().String("type", "MARKET", "order type (MARKET, LIMIT, STOPLOSS_LIMIT, STOPLOSS_MARKET)")
	cmd.Flags().String("product", "INTRADAY", "product type (INTRADAY, DELIVERY, MARGIN, CARRYFORWARD)")
	cmd.Flags().String("price", "", "limit price (MARKET orders send 0)")
	cmd.Flags().String("exchange", "", "exchange hint for resolution (NSE, BSE)")
	cmd.Flags().String("token", "", "symbol token (skips instrument resolution)")
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newOrderModifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modify <order-id>",
		Short: "Modify an open order",
		Long:  "Modify an open order. Only the passed flags are sent; omitted fields keep their current values at the broker.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			orderType, _ := cmd.Flags().GetString("type")
			price, _ := cmd.Flags().GetString("price")
			qty, _ := cmd.Flags().GetString("qty")

			result, err := app.Client.ModifyOrder(ctx, sess, args[0], smartapi.ModifyRequest{
				OrderType: models.OrderType(orderType),
				Price:     price,
				Quantity:  qty,
			})
			if err != nil {
				output.Error("Modify failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("Order %s modified", result.OrderID)
			return nil
		},
	}
	cmd.Flags().String("type", "", "new order type")
	cmd.Flags().String("price", "", "new price")
	cmd.Flags().String("qty", "", "new quantity")
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newOrderCancelCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an open order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			result, err := app.Client.CancelOrder(ctx, sess, args[0])
			if err != nil {
				output.Error("Cancel failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("Order %s cancelled", result.OrderID)
			return nil
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newOrderBookCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Show the day's order book",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			orders, err := app.Client.GetOrderBook(ctx, sess)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(orders)
			}
			if len(orders) == 0 {
				output.Dim("No orders today.")
				return nil
			}
			for _, o := range orders {
				output.Printf("%-12s  %-4s  %-14s  qty %-6s  %-10s  %s\n",
					o.OrderID, o.TransactionType, o.TradingSymbol, o.Quantity, o.OrderType, o.Status)
			}
			return nil
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newOrderTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Show the day's executed trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			trades, err := app.Client.GetTradeBook(ctx, sess)
			if err != nil {
				return err
			}
			return output.JSON(trades)
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newOrderDetailsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "details <unique-order-id>",
		Short: "Show a single order by its unique order id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext()
			defer cancel()

			sess, err := brokerSession(ctx, app, cmd)
			if err != nil {
				return err
			}
			defer app.Client.Logout(ctx, sess)

			order, err := app.Client.GetOrderDetails(ctx, sess, args[0])
			if err != nil {
				return err
			}
			return output.JSON(order)
		},
	}
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}
