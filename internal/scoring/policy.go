package scoring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"deal-radar/internal/storage"
)

// PublishThreshold is the exclusive score floor for auto-publication.
// A score of exactly 70 stays pending.
const PublishThreshold = 70

// Decision is the publication outcome for a scored deal.
type Decision struct {
	Status   string
	Announce bool
}

// Decide maps a deal score to a publication decision. Deals above the
// threshold are auto-published and announced; everything else is queued for
// manual review.
func Decide(score int) Decision {
	if score > PublishThreshold {
		return Decision{Status: storage.DealStatusPublished, Announce: true}
	}
	return Decision{Status: storage.DealStatusPending, Announce: false}
}

// MessageOptions tune announcement composition.
type MessageOptions struct {
	// MaxChars is the character budget for the composed message.
	MaxChars int
	// HotDropPct selects the fire emoji when the drop percent exceeds it.
	// The cutoff is keyed on drop percent, not the composite score; the
	// message itself quotes the percent-off figure.
	HotDropPct decimal.Decimal
}

// DefaultMessageOptions mirror the production social template: 260-character
// budget, fire emoji above a 20% drop.
func DefaultMessageOptions() MessageOptions {
	return MessageOptions{
		MaxChars:   260,
		HotDropPct: decimal.NewFromInt(20),
	}
}

// ComposeAnnouncement renders the social message for a drop. Messages over
// the budget are hard-cut to MaxChars-3 characters plus a trailing ellipsis;
// the cut is not word-safe.
func ComposeAnnouncement(drop PriceDrop, opts MessageOptions) string {
	emoji := "💰"
	if drop.DropPercent.GreaterThan(opts.HotDropPct) {
		emoji = "🔥"
	}

	builder := strings.Builder{}
	builder.WriteString(emoji)
	builder.WriteString(" ")
	builder.WriteString(drop.Title)
	builder.WriteString(fmt.Sprintf(" dropped to $%s (%s%% off)!", drop.NewPrice.StringFixed(2), drop.DropPercent.StringFixed(0)))
	builder.WriteString(fmt.Sprintf(" Was $%s.", drop.OldPrice.StringFixed(2)))
	builder.WriteString(" #TechDeals")
	if drop.Category != "" {
		builder.WriteString(" #" + sanitizeHashtag(drop.Category))
	}

	return truncate(builder.String(), opts.MaxChars)
}

// Hashtags returns the tag list attached to an announcement task.
func Hashtags(drop PriceDrop) []string {
	tags := []string{"TechDeals"}
	if drop.Category != "" {
		tags = append(tags, sanitizeHashtag(drop.Category))
	}
	return tags
}

func sanitizeHashtag(v string) string {
	return strings.ReplaceAll(strings.TrimSpace(v), " ", "")
}

// truncate counts characters, not bytes, so multi-byte runes never split.
func truncate(s string, max int) string {
	if max <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
