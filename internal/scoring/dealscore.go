package scoring

import "math"

// Deal score weights. Each term is clamped to its budget before summing so
// no single factor can exceed it. The two flat bonuses put a hard floor of
// 20 under every detected drop: a freshly detected drop is always "recent"
// and assumed in stock, so no deal ever scores below 20. Intentional.
const (
	dealVelocityBudget = 40.0
	dealSavingsBudget  = 30.0
	dealRecencyBoost   = 20.0
	dealStockBonus     = 10.0

	dealVelocityFullAtPct  = 50.0
	dealSavingsFullAtUnits = 500.0
)

// ScoreDeal converts a detected price drop into a 0-100 desirability score.
// Effective range is [20, 100].
func ScoreDeal(drop PriceDrop) int {
	pct := drop.DropPercent.InexactFloat64()
	savings := drop.OldPrice.Sub(drop.NewPrice).InexactFloat64()

	velocity := clampUnit(pct/dealVelocityFullAtPct) * dealVelocityBudget
	amount := clampUnit(savings/dealSavingsFullAtUnits) * dealSavingsBudget

	return int(math.Round(velocity + amount + dealRecencyBoost + dealStockBonus))
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
