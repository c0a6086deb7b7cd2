package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints recent deal records.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show deals")
	}
	if closeStore != nil {
		defer closeStore()
	}

	deals, err := store.ListRecentDeals(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(deals) == 0 {
		fmt.Fprintln(os.Stdout, "no deals found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Created (UTC)\tProduct\tOld\tNew\tDrop%\tScore\tStatus\tSource")

	for _, deal := range deals {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			deal.CreatedAt.UTC().Format(time.RFC3339),
			deal.ProductID,
			formatDecimal(deal.OldPrice, 2),
			formatDecimal(deal.NewPrice, 2),
			formatDecimal(deal.Discount, 1),
			deal.Score,
			deal.Status,
			deal.Source,
		)
	}

	writer.Flush()
	return nil
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
