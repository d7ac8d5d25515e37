package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"coindeck/internal/format"
)

// Markets fetches one quote snapshot and prints the overview table. No
// database required; this is a read-only peek at the market API.
func (a *App) Markets(ctx context.Context, opts MarketsOptions) error {
	currency := opts.Currency
	if currency == "" {
		currency = a.Config.Market.Currency
	}

	quotes, err := a.newMarketClient().FetchQuotes(ctx, currency)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		fmt.Fprintln(os.Stdout, "no market data returned")
		return nil
	}

	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].MarketCap.GreaterThan(quotes[j].MarketCap)
	})

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Coin\tSymbol\tPrice\t24h\tMarket Cap")

	for _, q := range quotes {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\n",
			q.Name,
			q.Symbol,
			format.CurrencyDecimal(q.CurrentPrice, currency, false),
			format.PercentageDecimal(q.ChangePct24h),
			format.CurrencyDecimal(q.MarketCap, currency, true),
		)
	}

	writer.Flush()
	return nil
}
