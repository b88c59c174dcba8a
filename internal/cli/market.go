package cli

import (
	"github.com/spf13/cobra"

	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// addMarketCommands adds instrument search and quote commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newScripSearchCmd(app))
	rootCmd.AddCommand(newLTPCmd(app))
}

func newScripSearchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the instrument catalog",
		Example: `  algotrade search RELIANCE
  algotrade search INFY --exchange BSE`,
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

			exchange, _ := cmd.Flags().GetString("exchange")
			results, err := app.Client.SearchScrip(ctx, sess, models.Exchange(exchange), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			if len(results) == 0 {
				output.Dim("No matches.")
				return nil
			}
			for _, r := range results {
				output.Printf("%-6s  %-20s  %s\n", r.Exchange, r.TradingSymbol, r.SymbolToken)
			}
			return nil
		},
	}
	cmd.Flags().String("exchange", "NSE", "exchange to search (NSE, BSE)")
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}

func newLTPCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ltp <ticker>",
		Short: "Show the last traded price for a ticker",
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

			exchange, _ := cmd.Flags().GetString("exchange")
			inst, err := app.Client.ResolveInstrument(ctx, sess, models.Exchange(exchange), args[0])
			if err != nil {
				output.Error("Could not resolve %s: %v", args[0], err)
				return err
			}

			ltp, err := app.Client.GetLTP(ctx, sess, inst.Exchange, inst.TradingSymbol, inst.SymbolToken)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(ltp)
			}
			output.Bold("%s (%s)", inst.TradingSymbol, inst.Exchange)
			output.Printf("  LTP:   %.2f\n", ltp.LTP)
			output.Printf("  Open:  %.2f\n", ltp.Open)
			output.Printf("  High:  %.2f\n", ltp.High)
			output.Printf("  Low:   %.2f\n", ltp.Low)
			output.Printf("  Close: %.2f\n", ltp.Close)
			return nil
		},
	}
	cmd.Flags().String("exchange", "", "exchange hint (NSE, BSE)")
	cmd.Flags().String("totp", "", "one-time TOTP code")
	return cmd
}
