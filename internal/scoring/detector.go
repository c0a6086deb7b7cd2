// Package scoring implements the deal-radar pipeline core: price-drop
// detection, deal scoring, trend aggregation, and the publication policy.
// Everything here is a pure function over supplied history; persistence and
// queueing belong to the callers.
package scoring

import (
	"time"

	"github.com/shopspring/decimal"

	"deal-radar/internal/storage"
)

var dec100 = decimal.NewFromInt(100)

// PriceDrop is a detected decline between two observations of one product.
type PriceDrop struct {
	ProductID   string
	Title       string
	Category    string
	OldPrice    decimal.Decimal
	NewPrice    decimal.Decimal
	DropPercent decimal.Decimal
	Vendor      string
}

// DetectorOptions tune drop detection.
type DetectorOptions struct {
	// ThresholdPct is the exclusive lower bound on drop percent. Drops at or
	// below it are not materialized.
	ThresholdPct decimal.Decimal
	// Lookback is how far behind now the reference observation should sit.
	Lookback time.Duration
}

// DefaultDetectorOptions match the production cadence: compare against the
// observation nearest 24 hours ago and flag drops above 10%.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		ThresholdPct: decimal.NewFromInt(10),
		Lookback:     24 * time.Hour,
	}
}

// DetectDrops scans each product's history (newest first) and emits a
// PriceDrop per product whose current price fell more than the threshold
// relative to the reference observation. Products with fewer than two
// observations are skipped, not errors. There is no cap on magnitude; a 90%
// "drop" is emitted as-is and left to the caller to sanity-check.
func DetectDrops(products []storage.Product, now time.Time, opts DetectorOptions) []PriceDrop {
	drops := make([]PriceDrop, 0)

	for _, product := range products {
		if len(product.History) < 2 {
			continue
		}

		current := product.History[0]
		refIdx := nearestIndex(product.History, now.Add(-opts.Lookback))
		if refIdx == 0 {
			// Reference resolved to the current observation; nothing to compare.
			continue
		}
		reference := product.History[refIdx]

		if reference.Price.IsZero() {
			continue
		}
		dropPercent := reference.Price.Sub(current.Price).Div(reference.Price).Mul(dec100)

		if dropPercent.GreaterThan(opts.ThresholdPct) {
			drops = append(drops, PriceDrop{
				ProductID:   product.ID,
				Title:       product.Title,
				Category:    product.Category,
				OldPrice:    reference.Price,
				NewPrice:    current.Price,
				DropPercent: dropPercent,
				Vendor:      current.Source,
			})
		}
	}

	return drops
}

// nearestIndex returns the index of the observation whose timestamp is
// closest to target by absolute difference. Ties keep the earliest slice
// position, which makes the search deterministic even when every
// observation shares one timestamp.
func nearestIndex(history []storage.PricePoint, target time.Time) int {
	best := 0
	bestDelta := absDuration(history[0].Timestamp.Sub(target))
	for i := 1; i < len(history); i++ {
		delta := absDuration(history[i].Timestamp.Sub(target))
		if delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
