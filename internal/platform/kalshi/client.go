package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

const (
	// DefaultBaseURL is the public Kalshi trade API root.
	DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

	defaultPageSize  = 200
	defaultMaxPages  = 5
	defaultRateLimit = 8.0
	defaultBurst     = 4
)

// Client is the REST client for the Kalshi exchange API. Public market data
// needs no credentials; requests are signed only when an RSA key is set.
type Client struct {
	baseURL    string
	apiKeyID   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
	maxPages   int
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit sets custom request pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithPagination bounds the page size and the number of pages per fetch.
func WithPagination(pageSize, maxPages int) Option {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
		if maxPages > 0 {
			c.maxPages = maxPages
		}
	}
}

// NewClient creates a new Kalshi REST client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
// apiKeyID may be empty for public data.
func NewClient(baseURL, apiKeyID string, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  baseURL,
		apiKeyID: apiKeyID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:  rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		pageSize: defaultPageSize,
		maxPages: defaultMaxPages,
		logger:   logger.With(slog.String("component", "kalshi_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetRSAPrivateKey loads an RSA private key from PEM-encoded bytes and
// configures the client for RSA-signed authentication.
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// Source identifies the exchange this client lists.
func (c *Client) Source() domain.Source {
	return domain.SourceKalshi
}

// FetchEvents walks open events with nested markets using cursor
// pagination. A failure after the first page returns what was collected.
func (c *Client) FetchEvents(ctx context.Context) ([]APIEvent, error) {
	var (
		all    []APIEvent
		cursor string
	)
	for page := 0; page < c.maxPages; page++ {
		events, next, err := c.GetEvents(ctx, c.pageSize, cursor)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("kalshi: fetch events: %w: %w", domain.ErrUpstreamUnavailable, err)
			}
			c.logger.WarnContext(ctx, "events page failed, returning partial result",
				slog.Int("page", page),
				slog.Int("collected", len(all)),
				slog.String("error", err.Error()),
			)
			break
		}
		all = append(all, events...)
		if next == "" || len(events) < c.pageSize {
			break
		}
		cursor = next
	}
	return all, nil
}

// FetchMarkets fetches events and normalizes them, dropping markets below
// minVolume.
func (c *Client) FetchMarkets(ctx context.Context, minVolume float64) ([]domain.Market, error) {
	events, err := c.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(events, minVolume), nil
}

// GetEvents returns one page of open events and the cursor for the next.
func (c *Client) GetEvents(ctx context.Context, limit int, cursor string) ([]APIEvent, string, error) {
	params := url.Values{}
	params.Set("status", "open")
	params.Set("with_nested_markets", "true")
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/events?"+params.Encode())
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: get events: %w", err)
	}

	var resp struct {
		Events []APIEvent `json:"events"`
		Cursor string     `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode events: %w", err)
	}
	return resp.Events, resp.Cursor, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, optionally signs, sends, and reads an HTTP request
// against the Kalshi API.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.privateKey != nil {
		if err := c.signRequest(req); err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// signRequest adds RSA authentication headers to the HTTP request.
// Kalshi uses RSA-PSS-SHA256 signatures over timestamp + method + path,
// where path is the full URL path without the query string.
func (c *Client) signRequest(req *http.Request) error {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := ts + req.Method + req.URL.Path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}

// checkStatus maps non-2xx HTTP status codes to domain errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr KalshiErrorResponse
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Error.Message
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, msg, apiErr.Error.Code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s (%s)", domain.ErrUnauthorized, msg, apiErr.Error.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (%s)", domain.ErrRateLimited, msg, apiErr.Error.Code)
	default:
		return fmt.Errorf("%w: HTTP %d: %s (%s)", domain.ErrUpstreamUnavailable, statusCode, msg, apiErr.Error.Code)
	}
}
