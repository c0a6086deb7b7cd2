// Package source provides pluggable retailer catalog adapters feeding the
// price-watch ingest job.
package source

import (
	"context"

	"github.com/shopspring/decimal"
)

// Offer is one current listing from a retailer catalog.
type Offer struct {
	ExternalID string
	Title      string
	Category   string
	Price      decimal.Decimal
	Currency   string
	URL        string
	InStock    bool
}

// Adapter retrieves current offers from one retailer.
type Adapter interface {
	Name() string
	FetchOffers(ctx context.Context) ([]Offer, error)
}
