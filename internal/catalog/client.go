package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Product represents a single catalog search match.
type Product struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	SetName    string  `json:"set_name"`
	CardNumber string  `json:"card_number"`
	ImageURL   string  `json:"image_url"`
	Relevance  float64 `json:"relevance"`
}

// Response models the catalog search response.
type Response struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// HasUsableImage reports whether the product carries a real image URL. URLs
// containing the placeholder marker count as no image.
func (p Product) HasUsableImage(placeholderMarker string) bool {
	imageURL := strings.TrimSpace(p.ImageURL)
	if imageURL == "" {
		return false
	}
	marker := strings.TrimSpace(placeholderMarker)
	if marker == "" {
		return true
	}
	return !strings.Contains(strings.ToLower(imageURL), strings.ToLower(marker))
}

// Searcher defines the catalog search operation used by the resolver.
type Searcher interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
}

// ErrRateLimited indicates the catalog rejected a request for exceeding its
// rate limit.
var ErrRateLimited = errors.New("catalog rate limited")

// Client provides access to the product catalog API for searches.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a catalog client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("catalog api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchProducts performs a catalog product search. A positive limit caps the
// number of returned products.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/products")
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("catalog search (latency=%v): %w", latency, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return payload.Products, nil
}
