package explorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/contractdiff/internal/model"
)

// Explorer paths.
const (
	verifiedPath = "/contractsVerified"
	similarPath  = "/find-similiar-contracts"
	addressPath  = "/address/"
)

// Client scrapes an Etherscan-style explorer. It implements ContractSource.
//
// A Client is safe for concurrent use. The politeness delay is shared by
// all goroutines using the same Client, so raising crawl concurrency does
// not raise the request rate.
type Client struct {
	// baseURL is the explorer root, e.g. https://etherscan.io.
	baseURL *url.URL

	// httpClient performs the requests.
	httpClient *http.Client

	// apiKey is appended as the apikey query parameter when set.
	apiKey string

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// delay is the minimum time between two requests.
	delay time.Duration

	// retry controls retries and backoff.
	retry RetryPolicy

	// logger for structured logging.
	logger *slog.Logger

	// sleep waits between retries and for the politeness delay.
	sleep sleepFunc

	// mu protects lastRequest.
	mu sync.Mutex

	// lastRequest is when the previous request was started.
	lastRequest time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIKey sets the explorer API key.
func WithAPIKey(key string) Option {
	return func(cl *Client) {
		cl.apiKey = key
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(cl *Client) {
		if size > 0 {
			cl.maxBodySize = size
		}
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) Option {
	return func(cl *Client) {
		cl.delay = d
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(cl *Client) {
		cl.retry = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// withSleep replaces the sleep function. Used by tests.
func withSleep(fn sleepFunc) Option {
	return func(cl *Client) {
		cl.sleep = fn
	}
}

// NewClient creates a Client for the explorer at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:     u,
		httpClient:  http.DefaultClient,
		userAgent:   "contractdiff",
		maxBodySize: 10 * 1024 * 1024, // 10MB
		delay:       time.Second,
		retry:       DefaultRetryPolicy(),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// ListVerifiedContracts returns the verified contracts listed on every page.
//
// The first page tells how many pages there are; the remaining pages are
// fetched one by one and the walk stops at the last page the pager reports.
// A page that still fails after all retries is skipped so that one bad page
// does not lose the whole list; failing to load the first page is an error.
func (c *Client) ListVerifiedContracts(ctx context.Context) ([]model.Address, error) {
	body, err := c.get(ctx, verifiedPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list verified contracts: %w", err)
	}
	first, err := parseListPage(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse verified contracts page: %w", err)
	}

	all := append([]model.Address(nil), first.Addresses...)
	total := first.Total
	c.logger.Info("listing verified contracts", "pages", total)

	start := max(first.Current, 1) + 1
	for page := start; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.get(ctx, verifiedPath+"/"+strconv.Itoa(page), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("skipping verified contracts page", "page", page, "error", err)
			continue
		}
		lp, err := parseListPage(bytes.NewReader(body))
		if err != nil {
			c.logger.Warn("skipping unparsable verified contracts page", "page", page, "error", err)
			continue
		}
		all = append(all, lp.Addresses...)
	}

	return model.UniqueAddresses(all), nil
}

// ListSimilar returns the contracts the explorer considers similar to addr.
func (c *Client) ListSimilar(ctx context.Context, addr model.Address) ([]model.Address, error) {
	body, err := c.get(ctx, similarPath, url.Values{"a": {addr.String()}})
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts similar to %s: %w", addr, err)
	}
	addrs, err := parseAddressTags(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse similar contracts of %s: %w", addr, err)
	}
	c.logger.Debug("found similar contracts", "address", addr, "count", len(addrs))
	return addrs, nil
}

// FetchSource returns the flattened source text of addr.
func (c *Client) FetchSource(ctx context.Context, addr model.Address) (string, error) {
	body, err := c.get(ctx, addressPath+addr.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch source of %s: %w", addr, err)
	}
	src, err := parseSource(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", addr, err)
	}
	return src, nil
}

// get fetches path with retries and returns the response body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := *c.baseURL
	u.Path += path
	if c.apiKey != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("apikey", c.apiKey)
	}
	u.RawQuery = query.Encode()
	target := u.String()

	var body []byte
	err := retryWithBackoff(ctx, c.retry, c.sleep, c.logger, path, func() error {
		var err error
		body, err = c.fetch(ctx, target)
		return err
	})
	return body, err
}

// fetch performs a single GET request.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	c.logger.Debug("fetching", "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport errors quote the request URL, API key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactURL(urlErr.URL)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // draining only
		return nil, &RateLimitError{
			URL:        redactURL(target),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize)) //nolint:errcheck // draining only
		return nil, &StatusError{URL: redactURL(target), Code: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
}

// wait enforces the politeness delay between requests.
func (c *Client) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}

	c.mu.Lock()
	next := c.lastRequest.Add(c.delay)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	c.lastRequest = next
	c.mu.Unlock()

	return c.sleep(ctx, time.Until(next))
}

// redactURL removes the API key from a URL so it can appear in errors and logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
