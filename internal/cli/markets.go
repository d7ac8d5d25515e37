package cli

import (
	"github.com/spf13/cobra"

	"coindeck/internal/app"
)

var marketsCurrency string

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Print a one-shot market overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Markets(cmd.Context(), app.MarketsOptions{
			Currency: marketsCurrency,
		})
	},
}

func init() {
	marketsCmd.Flags().StringVar(&marketsCurrency, "currency", "", "Display currency (defaults to config)")
}
