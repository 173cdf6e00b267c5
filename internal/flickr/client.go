package flickr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	domainerrors "github.com/photoramax/photorama/internal/errors"
)

const (
	// maxListingSize caps a listing payload.
	maxListingSize = 5 * 1024 * 1024
	// maxImageSize caps a single image download.
	maxImageSize = 10 * 1024 * 1024

	defaultTimeout = 30 * time.Second
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Method            string
	Extras            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client issues single-attempt HTTP GETs against the listing endpoint and
// image URLs. Every failure is reported as a transport error.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	listingURL  string
	logger      *slog.Logger
}

// NewClient creates a new listing client.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	listingURL, err := BuildListingURL(cfg.BaseURL, cfg.Method, cfg.APIKey, cfg.Extras)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		rateLimiter: rate.NewLimiter(limit, burst),
		listingURL:  listingURL,
		logger:      logger,
	}, nil
}

// BuildListingURL returns the listing endpoint URL with its fixed query parameters:
//
//	{base}?method=..&format=json&nojsoncallback=1&api_key=..&extras=..
func BuildListingURL(baseURL, method, apiKey, extras string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q is not absolute", baseURL)
	}

	params := u.Query()
	params.Set("method", method)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	params.Set("api_key", apiKey)
	params.Set("extras", extras)
	u.RawQuery = params.Encode()

	return u.String(), nil
}

// FetchListing retrieves the raw listing payload.
func (c *Client) FetchListing(ctx context.Context) ([]byte, error) {
	c.logger.Debug("fetching listing")
	return c.get(ctx, c.listingURL, maxListingSize)
}

// FetchBytes retrieves the raw bytes at rawURL, typically an image.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domainerrors.Transportf("invalid url %q", rawURL)
	}
	c.logger.Debug("fetching bytes", "url", rawURL)
	return c.get(ctx, rawURL, maxImageSize)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTransport, "rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTransport, "create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTransport, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domainerrors.Transportf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}

	// Read one byte past the limit to detect oversized bodies.
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTransport, "read body")
	}
	if int64(len(data)) > limit {
		return nil, domainerrors.Transportf("response exceeds %d bytes", limit)
	}

	return data, nil
}
