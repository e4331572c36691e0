package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/nao1215/secregistry/internal/config"
)

const (
	// DefaultBackoff is the wait before the first retry.
	DefaultBackoff = 500 * time.Millisecond

	maxBackoff = 30 * time.Second
)

// PageCache stores decoded page bodies by URL.
type PageCache interface {
	// Get returns the body stored for url if it is younger than maxAge.
	Get(ctx context.Context, url string, maxAge time.Duration) ([]byte, bool, error)

	// Put stores body for url.
	Put(ctx context.Context, url string, body []byte) error
}

// Fetcher downloads pages and parses them into documents.
// Requests are spaced by a rate limiter and retried on server errors.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	retries     int
	backoff     time.Duration
	limiter     *rate.Limiter
	robots      *robotsPolicy
	obeyRobots  bool
	cache       PageCache
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize limits the bytes read from each response.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		f.retries = n
	}
}

// WithBackoff sets the wait before the first retry. It doubles on every
// following retry, up to 30 seconds.
func WithBackoff(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.backoff = d
	}
}

// WithRateLimit spaces requests to at most perSecond, with the given burst.
// A non-positive rate disables the limit.
func WithRateLimit(perSecond float64, burst int) FetcherOption {
	return func(f *Fetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithRobots enables or disables robots.txt checks.
func WithRobots(obey bool) FetcherOption {
	return func(f *Fetcher) {
		f.obeyRobots = obey
	}
}

// WithCache serves pages younger than ttl from cache and stores every
// fetched page in it.
func WithCache(cache PageCache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = cache
		f.cacheTTL = ttl
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher returns a Fetcher using client for every request.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   config.DefaultUserAgent,
		maxBodySize: config.DefaultMaxBodySize,
		retries:     config.DefaultRetries,
		backoff:     DefaultBackoff,
		limiter:     rate.NewLimiter(rate.Limit(config.DefaultRate), config.DefaultBurst),
		obeyRobots:  true,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.obeyRobots {
		f.robots = newRobotsPolicy(client, f.userAgent, f.logger)
	}
	return f
}

// Fetch downloads rawURL and parses it. The document's Url is the final
// URL after HTTP redirects, so relative links resolve against it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	u.Fragment = ""
	key := u.String()

	if f.cache != nil {
		body, ok, err := f.cache.Get(ctx, key, f.cacheTTL)
		if err != nil {
			f.logger.Warn("page cache read failed", "url", key, "error", err)
		} else if ok {
			f.logger.Debug("page served from cache", "url", key)
			return newDocument(body, u)
		}
	}

	if f.robots != nil && !f.robots.allowed(ctx, u) {
		return nil, fmt.Errorf("GET %s: %w", key, ErrDisallowed)
	}

	body, final, err := f.fetchWithRetry(ctx, u)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Put(ctx, key, body); err != nil {
			f.logger.Warn("page cache write failed", "url", key, "error", err)
		}
	}
	return newDocument(body, final)
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, u *url.URL) ([]byte, *url.URL, error) {
	var (
		body     []byte
		final    *url.URL
		attempts int
	)
	operation := func() error {
		attempts++
		var err error
		body, final, err = f.fetchOnce(ctx, u)
		if err != nil && !isTemporary(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		f.logger.Debug("retrying request", "url", u.String(), "attempt", attempts, "wait", wait, "error", err)
	}

	err := backoff.RetryNotify(operation, f.newBackOff(ctx), notify)
	if err == nil {
		return body, final, nil
	}
	if attempts > f.retries && isTemporary(ctx, err) {
		return nil, nil, fmt.Errorf("GET %s: giving up after %d attempts: %w", u, attempts, err)
	}
	return nil, nil, err
}

// newBackOff returns the retry schedule: f.backoff doubling per retry,
// capped at maxBackoff, for at most f.retries retries.
func (f *Fetcher) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min(max(f.backoff, 0), maxBackoff)
	b.MaxInterval = maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(f.retries, 0))), ctx) //nolint:gosec // clamped to non-negative
}

func (f *Fetcher) fetchOnce(ctx context.Context, u *url.URL) ([]byte, *url.URL, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodySize)) //nolint:errcheck // draining for connection reuse
		return nil, nil, &StatusError{URL: u.String(), StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: read body: %w", u, err)
	}

	body, err := decodeBody(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: decode body: %w", u, err)
	}

	final := u
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return body, final, nil
}

// decodeBody converts a body in the charset announced by the response
// or its meta tags to UTF-8.
func decodeBody(raw []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func newDocument(body []byte, u *url.URL) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u, err)
	}
	doc.Url = u
	return doc, nil
}

// isTemporary reports whether err is worth retrying.
func isTemporary(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, context.Canceled)
}
