package scoring

import (
	"math"
	"sort"
	"time"

	"deal-radar/internal/storage"
)

// MinTrendHistory is the minimum number of total observations a product needs
// before it participates in trend ranking. Products below it are omitted
// entirely, not zero-scored.
const MinTrendHistory = 7

// Trend score weights, clamped per term like the deal score.
const (
	trendShortBudget = 40.0
	trendMediaBudget = 30.0
	trendCTRBudget   = 20.0
	trendLongBudget  = 10.0

	trendShortFullAtPct   = 25.0
	trendMediaFullAtCount = 10.0
	trendCTRFullAtPct     = 5.0
	trendLongFullAtPct    = 50.0
)

// TrendInputs are the component signals feeding one composite score.
type TrendInputs struct {
	PriceVelocity7d  float64 `json:"priceVelocity7d"`
	PriceVelocity30d float64 `json:"priceVelocity30d"`
	MediaCount7d     int     `json:"mediaCount7d"`
	CTR30d           float64 `json:"ctr30d"`
}

// RankedProduct pairs a product with its component signals and composite score.
type RankedProduct struct {
	ProductID string
	Inputs    TrendInputs
	Score     int
}

// CTRProvider supplies the 30-day click-through proxy for a product. The
// production analytics feed is not wired yet, so callers inject a provider;
// StaticCTR keeps scoring deterministic in the meantime.
type CTRProvider interface {
	CTR30d(productID string) float64
}

// StaticCTR returns the same click-through rate for every product.
type StaticCTR struct {
	Value float64
}

// CTR30d implements CTRProvider.
func (s StaticCTR) CTR30d(string) float64 {
	return s.Value
}

// PriceVelocity computes the percent price change across a trailing window:
// (oldest - newest) / oldest * 100, using only observations inside the
// window. Positive means the price fell. Returns 0 when fewer than two
// observations land in the window.
func PriceVelocity(history []storage.PricePoint, now time.Time, window time.Duration) float64 {
	if len(history) < 2 {
		return 0
	}

	cutoff := now.Add(-window)
	newest := -1
	oldest := -1
	for i, point := range history {
		if point.Timestamp.Before(cutoff) {
			continue
		}
		if newest == -1 {
			newest = i
		}
		oldest = i
	}
	if newest == -1 || newest == oldest {
		return 0
	}

	oldestPrice := history[oldest].Price.InexactFloat64()
	newestPrice := history[newest].Price.InexactFloat64()
	if oldestPrice == 0 {
		return 0
	}
	return (oldestPrice - newestPrice) / oldestPrice * 100
}

// ScoreTrend folds the component signals into a composite 0-100 score.
func ScoreTrend(in TrendInputs) int {
	short := clampUnit(in.PriceVelocity7d/trendShortFullAtPct) * trendShortBudget
	media := clampUnit(float64(in.MediaCount7d)/trendMediaFullAtCount) * trendMediaBudget
	ctr := clampUnit(in.CTR30d/trendCTRFullAtPct) * trendCTRBudget
	long := clampUnit(in.PriceVelocity30d/trendLongFullAtPct) * trendLongBudget

	return int(math.Round(short + media + ctr + long))
}

// BuildTrendInputs derives the component signals for one product.
func BuildTrendInputs(product storage.Product, now time.Time, ctr CTRProvider) TrendInputs {
	return TrendInputs{
		PriceVelocity7d:  PriceVelocity(product.History, now, 7*24*time.Hour),
		PriceVelocity30d: PriceVelocity(product.History, now, 30*24*time.Hour),
		MediaCount7d:     product.MediaCount7d,
		CTR30d:           ctr.CTR30d(product.ID),
	}
}

// RankTrends scores every product with enough history and returns them sorted
// by composite score descending. The sort is stable, so ties keep the input
// relative order. Products with fewer than MinTrendHistory observations are
// excluded.
func RankTrends(products []storage.Product, now time.Time, ctr CTRProvider) []RankedProduct {
	ranked := make([]RankedProduct, 0, len(products))
	for _, product := range products {
		if len(product.History) < MinTrendHistory {
			continue
		}
		inputs := BuildTrendInputs(product, now, ctr)
		ranked = append(ranked, RankedProduct{
			ProductID: product.ID,
			Inputs:    inputs,
			Score:     ScoreTrend(inputs),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
