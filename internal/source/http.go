package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const offersPath = "/offers"

// HTTPOptions parameterise a retailer catalog client.
type HTTPOptions struct {
	Name      string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// HTTPAdapter fetches offers from a retailer catalog API.
type HTTPAdapter struct {
	opts    HTTPOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewHTTP constructs a catalog client for one retailer.
func NewHTTP(opts HTTPOptions, logger zerolog.Logger) *HTTPAdapter {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPAdapter{
		opts:    opts,
		logger:  logger.With().Str("component", "source_http").Str("source", opts.Name).Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// Name identifies the retailer this adapter reads from.
func (a *HTTPAdapter) Name() string {
	return a.opts.Name
}

// FetchOffers retrieves the current offer list.
func (a *HTTPAdapter) FetchOffers(ctx context.Context) ([]Offer, error) {
	if a.baseURL == "" {
		return nil, errors.New("base url required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+offersPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(a.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(a.opts.Name, resp.StatusCode, payload)
	}

	var body offersResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}

	offers := make([]Offer, 0, len(body.Items))
	for _, item := range body.Items {
		price, convErr := decimal.NewFromString(item.Price)
		if convErr != nil {
			return nil, fmt.Errorf("parse offer price for %s: %w", item.ID, convErr)
		}
		if price.Sign() <= 0 {
			a.logger.Warn().Str("external_id", item.ID).Str("price", item.Price).Msg("skipping non-positive price")
			continue
		}
		offers = append(offers, Offer{
			ExternalID: item.ID,
			Title:      item.Title,
			Category:   item.Category,
			Price:      price,
			Currency:   item.Currency,
			URL:        item.URL,
			InStock:    item.InStock,
		})
	}

	return offers, nil
}

type offersResponse struct {
	Items []offerItem `json:"items"`
}

type offerItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	URL      string `json:"url"`
	InStock  bool   `json:"inStock"`
}

type errorResponse struct {
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func parseHTTPError(name string, status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Description != "" {
			return fmt.Errorf("%s catalog error (%d): %s", name, status, apiErr.Description)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("%s catalog error (%d): %s", name, status, apiErr.Message)
		}
		if apiErr.ErrorType != "" {
			return fmt.Errorf("%s catalog error (%d): %s", name, status, apiErr.ErrorType)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("%s catalog error (%d): %s", name, status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%s catalog error (%d)", name, status)
}

var _ Adapter = (*HTTPAdapter)(nil)
