package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestHTTPAdapterMissingBaseURL(t *testing.T) {
	a := NewHTTP(HTTPOptions{Name: "retailerA"}, noopLogger())
	if _, err := a.FetchOffers(context.Background()); err == nil {
		t.Fatal("missing base url should return an error")
	}
}

func TestHTTPAdapterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"errorType": "bad"})
	}))
	defer srv.Close()

	a := NewHTTP(HTTPOptions{Name: "retailerA", BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := a.FetchOffers(context.Background()); err == nil {
		t.Fatal("non-200 response should return an error")
	}
}

func TestHTTPAdapterFetchOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/offers" {
			t.Fatalf("expected /offers path, got %s", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "dealradar-test" {
			t.Fatalf("user agent not forwarded: %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "sku-1", "title": "Widget", "category": "Widgets", "price": "99.99", "currency": "USD", "url": "https://example.com/sku-1", "inStock": true},
				{"id": "sku-2", "title": "Freebie", "category": "Widgets", "price": "0", "currency": "USD", "url": "https://example.com/sku-2", "inStock": true},
			},
		})
	}))
	defer srv.Close()

	a := NewHTTP(HTTPOptions{
		Name:      "retailerA",
		BaseURL:   srv.URL,
		Timeout:   time.Second,
		UserAgent: "dealradar-test",
	}, noopLogger())

	offers, err := a.FetchOffers(context.Background())
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("zero-priced offers must be skipped; expected 1 offer, got %d", len(offers))
	}
	if offers[0].ExternalID != "sku-1" {
		t.Fatalf("unexpected offer: %+v", offers[0])
	}
	if !offers[0].Price.Equal(decimal.NewFromFloat(99.99)) {
		t.Fatalf("unexpected price: %s", offers[0].Price)
	}
}

func TestStaticAdapterCopies(t *testing.T) {
	a := NewStatic("retailerA", DemoCatalog("retailerA"))

	first, err := a.FetchOffers(context.Background())
	if err != nil {
		t.Fatalf("static fetch should succeed: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("demo catalog should not be empty")
	}

	first[0].Title = "mutated"
	second, _ := a.FetchOffers(context.Background())
	if second[0].Title == "mutated" {
		t.Fatal("adapter must hand out copies, not the backing slice")
	}
}
