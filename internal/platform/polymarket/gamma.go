package polymarket

import (
	"context"
	"encoding/json"
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
	// DefaultGammaHost is the Gamma API root.
	DefaultGammaHost = "https://gamma-api.polymarket.com"

	defaultPageSize  = 100
	defaultMaxPages  = 5
	defaultRateLimit = 10.0 // requests per second
	defaultBurst     = 5
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides event discovery and metadata. Public endpoints need no auth.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
	maxPages   int
	logger     *slog.Logger
}

// Option configures a GammaClient.
type Option func(*GammaClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GammaClient) {
		g.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *GammaClient) {
		if d > 0 {
			g.httpClient.Timeout = d
		}
	}
}

// WithRateLimit sets custom request pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *GammaClient) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithPagination bounds how many events are requested per page and how many
// pages a single fetch may walk.
func WithPagination(pageSize, maxPages int) Option {
	return func(g *GammaClient) {
		if pageSize > 0 {
			g.pageSize = pageSize
		}
		if maxPages > 0 {
			g.maxPages = maxPages
		}
	}
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string, logger *slog.Logger, opts ...Option) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaHost
	}
	g := &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:  rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		pageSize: defaultPageSize,
		maxPages: defaultMaxPages,
		logger:   logger.With(slog.String("component", "polymarket_gamma")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Source identifies the exchange this client lists.
func (g *GammaClient) Source() domain.Source {
	return domain.SourcePolymarket
}

// FetchEvents walks the open events ordered by volume. If a page after the
// first fails, the events collected so far are returned without error.
func (g *GammaClient) FetchEvents(ctx context.Context) ([]APIEvent, error) {
	var all []APIEvent
	for page := 0; page < g.maxPages; page++ {
		events, err := g.GetEvents(ctx, g.pageSize, page*g.pageSize)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("polymarket/gamma: fetch events: %w: %w", domain.ErrUpstreamUnavailable, err)
			}
			g.logger.WarnContext(ctx, "events page failed, returning partial result",
				slog.Int("page", page),
				slog.Int("collected", len(all)),
				slog.String("error", err.Error()),
			)
			break
		}
		all = append(all, events...)
		if len(events) < g.pageSize {
			break
		}
	}
	return all, nil
}

// FetchMarkets fetches events and normalizes them, dropping markets below
// minVolume.
func (g *GammaClient) FetchMarkets(ctx context.Context, minVolume float64) ([]domain.Market, error) {
	events, err := g.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(events, minVolume), nil
}

// GetEvents returns one page of open events ordered by volume descending.
func (g *GammaClient) GetEvents(ctx context.Context, limit, offset int) ([]APIEvent, error) {
	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("archived", "false")
	params.Set("order", "volume")
	params.Set("ascending", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	return events, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	if len(bodyStr) > 256 {
		bodyStr = bodyStr[:256]
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrUpstreamUnavailable, statusCode, bodyStr)
	}
}
