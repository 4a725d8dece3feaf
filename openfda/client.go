// Package openfda queries the openFDA drug label endpoint.
package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/metrics"
	"github.com/giygas/medcompanion-api/upstream"
)

// Vendor is the name used in errors, metrics and probes
const Vendor = "openfda"

// Defaults
const (
	DefaultBaseURL = "https://api.fda.gov/drug/label.json"
	DefaultTimeout = 10 * time.Second
)

// Config holds the label client settings. Zero values use the defaults.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// APIKey is optional; openFDA grants a higher quota with one.
	APIKey string
}

// Client implements interfaces.LabelSource and interfaces.Prober.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

var (
	_ interfaces.LabelSource = (*Client)(nil)
	_ interfaces.Prober      = (*Client)(nil)
)

// searchResponse is the subset of the openFDA answer we read
type searchResponse struct {
	Results []entities.RawLabel `json:"results"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		// the per-call context carries the deadline; the client timeout is a backstop
		http:    upstream.NewHTTPClient(cfg.Timeout + time.Second),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
	}
}

func (c *Client) Name() string {
	return Vendor
}

// encodeTerm percent-encodes a search term with spaces as %20
func encodeTerm(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// SearchURL returns the query that matches name as brand or generic name,
// limited to one result. The same URL is used for the request.
func (c *Client) SearchURL(name string) string {
	term := encodeTerm(name)
	return fmt.Sprintf("%s?search=openfda.brand_name:%%22%s%%22+openfda.generic_name:%%22%s%%22&limit=1",
		c.baseURL, term, term)
}

// requestURL adds the API key, which is kept out of SearchURL
func (c *Client) requestURL(base string) string {
	if c.apiKey == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "api_key=" + url.QueryEscape(c.apiKey)
}

// SearchLabel returns the first matching label.
func (c *Client) SearchLabel(ctx context.Context, name string) (label entities.RawLabel, err error) {
	start := time.Now()
	defer func() { metrics.ObserveVendorCall(Vendor, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(c.SearchURL(name)), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("openfda: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, upstream.TransportError(Vendor, err)
	}
	defer upstream.CloseBody(Vendor, resp.Body)

	// openFDA answers a query without matches with 404 NOT_FOUND
	if resp.StatusCode == http.StatusNotFound {
		var body searchResponse
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error != nil && body.Error.Code == "NOT_FOUND" {
			return nil, entities.ErrNotFound
		}
		return nil, &entities.UpstreamError{Vendor: Vendor, StatusCode: resp.StatusCode, Detail: "unexpected 404"}
	}

	if !upstream.IsSuccess(resp.StatusCode) {
		return nil, upstream.StatusError(Vendor, resp)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, upstream.TransportError(Vendor, fmt.Errorf("decode response: %w", err))
	}

	if len(body.Results) == 0 {
		return nil, entities.ErrNotFound
	}

	return body.Results[0], nil
}

// Ping fetches a single arbitrary label to check reachability.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(c.baseURL+"?limit=1"), http.NoBody)
	if err != nil {
		return fmt.Errorf("openfda: create ping request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return upstream.TransportError(Vendor, err)
	}
	defer upstream.CloseBody(Vendor, resp.Body)

	if !upstream.IsSuccess(resp.StatusCode) {
		return upstream.StatusError(Vendor, resp)
	}
	return nil
}
