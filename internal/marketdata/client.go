// Package marketdata is a client for the Birdeye token-data API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"solana-pool-sniper/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL           = "https://public-api.birdeye.so"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 1
)

// Client defines the token market data interface used by the sniper.
type Client interface {
	// TokenOverview fetches full market metrics for one token.
	TokenOverview(ctx context.Context, address string) (*domain.TokenMetrics, error)

	// Price fetches the current USD price of one token.
	Price(ctx context.Context, address string) (float64, error)

	// NewListings fetches recently listed tokens.
	NewListings(ctx context.Context, limit int) ([]Listing, error)

	// TokenList fetches tokens sorted by 24h volume.
	TokenList(ctx context.Context, offset, limit int) ([]domain.TokenMetrics, error)
}

// Listing is one entry from the new-listings endpoint.
type Listing struct {
	Address       string
	Symbol        string
	Name          string
	LiquidityUSD  float64
	ListedAtMilli int64
}

// StatusError is an HTTP error response from the market data API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("market data API status %d: %s", e.Status, e.Body)
}

// HTTPClient implements Client against the Birdeye REST API.
// All requests pass through a client-side rate limiter; the public tier
// throttles aggressively and a 429 burns the whole detection window.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithRequestsPerSecond sets the client-side rate limit.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *HTTPClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a market data client keyed by apiKey.
func NewHTTPClient(baseURL, apiKey string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a rate-limited GET and decodes the enveloped response.
func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, data interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	rawURL := c.baseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("API reported failure: %s", string(body))
	}
	if data != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return nil
}

// tokenOverviewData is the raw token_overview payload subset.
type tokenOverviewData struct {
	Address          string  `json:"address"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	MarketCap        float64 `json:"mc"`
	Liquidity        float64 `json:"liquidity"`
	Volume24h        float64 `json:"v24hUSD"`
	PriceChange24h   float64 `json:"priceChange24hPercent"`
	LastTradeUnixSec int64   `json:"lastTradeUnixTime"`
}

// TokenOverview fetches full market metrics for one token.
func (c *HTTPClient) TokenOverview(ctx context.Context, address string) (*domain.TokenMetrics, error) {
	q := url.Values{}
	q.Set("address", address)

	var data tokenOverviewData
	if err := c.get(ctx, "/defi/token_overview", q, &data); err != nil {
		return nil, fmt.Errorf("token overview %s: %w", address, err)
	}

	return &domain.TokenMetrics{
		Address:        address,
		Symbol:         data.Symbol,
		Name:           data.Name,
		Price:          data.Price,
		MarketCap:      data.MarketCap,
		Liquidity:      data.Liquidity,
		Volume24h:      data.Volume24h,
		PriceChange24h: data.PriceChange24h,
		LastTradeTime:  data.LastTradeUnixSec * 1000,
	}, nil
}

// Price fetches the current USD price of one token.
func (c *HTTPClient) Price(ctx context.Context, address string) (float64, error) {
	q := url.Values{}
	q.Set("address", address)

	var data struct {
		Value float64 `json:"value"`
	}
	if err := c.get(ctx, "/defi/price", q, &data); err != nil {
		return 0, fmt.Errorf("price %s: %w", address, err)
	}
	return data.Value, nil
}

// newListingData is the raw new_listing payload.
type newListingData struct {
	Items []struct {
		Address          string  `json:"address"`
		Symbol           string  `json:"symbol"`
		Name             string  `json:"name"`
		Liquidity        float64 `json:"liquidity"`
		LiquidityAddedAt string  `json:"liquidityAddedAt"`
	} `json:"items"`
}

// NewListings fetches recently listed tokens.
func (c *HTTPClient) NewListings(ctx context.Context, limit int) ([]Listing, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var data newListingData
	if err := c.get(ctx, "/defi/v2/tokens/new_listing", q, &data); err != nil {
		return nil, fmt.Errorf("new listings: %w", err)
	}

	listings := make([]Listing, 0, len(data.Items))
	for _, item := range data.Items {
		l := Listing{
			Address:      item.Address,
			Symbol:       item.Symbol,
			Name:         item.Name,
			LiquidityUSD: item.Liquidity,
		}
		if item.LiquidityAddedAt != "" {
			if ts, err := time.Parse(time.RFC3339, item.LiquidityAddedAt); err == nil {
				l.ListedAtMilli = ts.UnixMilli()
			}
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// tokenListData is the raw tokenlist payload.
type tokenListData struct {
	Tokens []struct {
		Address          string  `json:"address"`
		Symbol           string  `json:"symbol"`
		Name             string  `json:"name"`
		Price            float64 `json:"price"`
		MarketCap        float64 `json:"mc"`
		Liquidity        float64 `json:"liquidity"`
		Volume24h        float64 `json:"v24hUSD"`
		PriceChange24h   float64 `json:"v24hChangePercent"`
		LastTradeUnixSec int64   `json:"lastTradeUnixTime"`
	} `json:"tokens"`
}

// TokenList fetches tokens sorted by 24h volume descending.
func (c *HTTPClient) TokenList(ctx context.Context, offset, limit int) ([]domain.TokenMetrics, error) {
	q := url.Values{}
	q.Set("sort_by", "v24hUSD")
	q.Set("sort_type", "desc")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var data tokenListData
	if err := c.get(ctx, "/defi/tokenlist", q, &data); err != nil {
		return nil, fmt.Errorf("token list: %w", err)
	}

	metrics := make([]domain.TokenMetrics, 0, len(data.Tokens))
	for _, tok := range data.Tokens {
		metrics = append(metrics, domain.TokenMetrics{
			Address:        tok.Address,
			Symbol:         tok.Symbol,
			Name:           tok.Name,
			Price:          tok.Price,
			MarketCap:      tok.MarketCap,
			Liquidity:      tok.Liquidity,
			Volume24h:      tok.Volume24h,
			PriceChange24h: tok.PriceChange24h,
			LastTradeTime:  tok.LastTradeUnixSec * 1000,
		})
	}
	return metrics, nil
}
