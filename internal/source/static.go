package source

import (
	"context"

	"github.com/shopspring/decimal"
)

// StaticAdapter serves a fixed catalog. Used when a retailer has no base URL
// configured, standing in for the real API in development.
type StaticAdapter struct {
	name   string
	offers []Offer
}

// NewStatic wraps a fixed offer list.
func NewStatic(name string, offers []Offer) *StaticAdapter {
	return &StaticAdapter{name: name, offers: offers}
}

// Name identifies the mocked retailer.
func (a *StaticAdapter) Name() string {
	return a.name
}

// FetchOffers returns the fixed catalog.
func (a *StaticAdapter) FetchOffers(context.Context) ([]Offer, error) {
	out := make([]Offer, len(a.offers))
	copy(out, a.offers)
	return out, nil
}

// DemoCatalog returns a small fixed catalog for a named retailer.
func DemoCatalog(name string) []Offer {
	switch name {
	case "retailerB":
		return []Offer{
			{ExternalID: "bb-4k-monitor", Title: "27\" 4K IPS Monitor", Category: "Monitors", Price: decimal.NewFromFloat(329.99), Currency: "USD", URL: "https://example.com/bb-4k-monitor", InStock: true},
			{ExternalID: "bb-anc-headphones", Title: "Wireless ANC Headphones", Category: "Audio", Price: decimal.NewFromFloat(199.00), Currency: "USD", URL: "https://example.com/bb-anc-headphones", InStock: true},
		}
	case "retailerC":
		return []Offer{
			{ExternalID: "ne-nvme-2tb", Title: "2TB NVMe SSD", Category: "Storage", Price: decimal.NewFromFloat(119.99), Currency: "USD", URL: "https://example.com/ne-nvme-2tb", InStock: true},
			{ExternalID: "ne-ddr5-32gb", Title: "32GB DDR5 Kit", Category: "Memory", Price: decimal.NewFromFloat(94.50), Currency: "USD", URL: "https://example.com/ne-ddr5-32gb", InStock: false},
		}
	default:
		return []Offer{
			{ExternalID: "az-mech-keyboard", Title: "Mechanical Keyboard", Category: "Peripherals", Price: decimal.NewFromFloat(89.99), Currency: "USD", URL: "https://example.com/az-mech-keyboard", InStock: true},
			{ExternalID: "az-usbc-dock", Title: "USB-C Docking Station", Category: "Peripherals", Price: decimal.NewFromFloat(149.99), Currency: "USD", URL: "https://example.com/az-usbc-dock", InStock: true},
		}
	}
}

var _ Adapter = (*StaticAdapter)(nil)
