package storage

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Deal record lifecycle states. A record is created pending or published and
// only ever transitions pending -> published (moderation, outside this job).
const (
	DealStatusPending   = "pending"
	DealStatusPublished = "published"
)

// SignalComposite is the signal type written by the trend finder.
const SignalComposite = "composite_score"

// PricePoint is a single append-only price observation for a product.
type PricePoint struct {
	ID        int64
	ProductID string
	Price     decimal.Decimal
	Source    string
	Timestamp time.Time
}

// Product carries catalog metadata plus its recent price history,
// ordered by timestamp descending.
type Product struct {
	ID           string
	ExternalID   string
	Source       string
	Title        string
	Category     string
	History      []PricePoint
	MediaCount7d int
}

// DealRecord captures a scored price drop. Immutable after creation
// except for the pending -> published status transition.
type DealRecord struct {
	ID        string
	ProductID string
	OldPrice  decimal.Decimal
	NewPrice  decimal.Decimal
	Discount  decimal.Decimal
	Source    string
	Score     int
	Status    string
	CreatedAt time.Time
}

// TrendSignal is one append-only scoring observation. History is
// cumulative; every run emits a fresh row per analyzed product.
type TrendSignal struct {
	ID         string
	ProductID  string
	SignalType string
	Value      float64
	Timestamp  time.Time
	Metadata   json.RawMessage
}
