package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"deal-radar/internal/scoring"
	"deal-radar/internal/social"
)

// SimulateDeal drives a synthetic price drop through the scorer, the
// publication policy, and the announcement queue. Verifies social wiring
// without touching the database.
func (a *App) SimulateDeal(ctx context.Context, title string, oldPrice, newPrice decimal.Decimal) error {
	if oldPrice.Sign() <= 0 || newPrice.Sign() <= 0 {
		return errors.New("prices must be positive")
	}
	if !newPrice.LessThan(oldPrice) {
		return errors.New("new price must be below old price")
	}

	drop := scoring.PriceDrop{
		ProductID:   uuid.NewString(),
		Title:       title,
		Category:    "Simulated",
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
		DropPercent: oldPrice.Sub(newPrice).Div(oldPrice).Mul(decimal.NewFromInt(100)),
		Vendor:      "simulator",
	}

	score := scoring.ScoreDeal(drop)
	decision := scoring.Decide(score)

	message := scoring.DefaultMessageOptions()
	if a.Config.Social.MaxChars > 0 {
		message.MaxChars = a.Config.Social.MaxChars
	}
	if a.Config.Social.HotDropPct > 0 {
		message.HotDropPct = decimal.NewFromFloat(a.Config.Social.HotDropPct)
	}
	content := scoring.ComposeAnnouncement(drop, message)

	fmt.Fprintf(os.Stdout, "drop: %s%%  score: %d  status: %s  announce: %t\n",
		drop.DropPercent.StringFixed(1), score, decision.Status, decision.Announce)
	fmt.Fprintf(os.Stdout, "message: %s\n", content)

	if !decision.Announce {
		return nil
	}

	announcer, closeAnnouncer := a.newAnnouncer()
	if closeAnnouncer != nil {
		defer closeAnnouncer()
	}
	if announcer == nil {
		a.Logger.Warn().Msg("social disabled; announcement not queued")
		return nil
	}

	task := social.Task{
		DealRecordID: uuid.NewString(),
		Platform:     a.Config.Social.Platform,
		Content:      content,
		Hashtags:     scoring.Hashtags(drop),
		ScheduledAt:  time.Now().UTC().Add(a.Config.Social.ScheduleDelay),
		Status:       social.StatusQueued,
	}
	return announcer.Announce(ctx, task)
}
