package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/secregistry/internal/extract"
	"github.com/nao1215/secregistry/internal/model"
)

// ErrLimitReached stops a walk once the configured number of companies
// has been emitted. Walk does not return it.
var ErrLimitReached = errors.New("company limit reached")

// DocumentFetcher fetches a page as a parsed document.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// CompanyProcessor builds the record of one company.
type CompanyProcessor interface {
	Process(ctx context.Context, link model.CompanyLink) (*model.CompanyRecord, error)
}

// RecordFunc receives every record of a walk. Returning an error stops
// the walk with that error.
type RecordFunc func(rec *model.CompanyRecord) error

// Walker visits the category index, every listing it links to, and every
// company of those listings, one page at a time.
type Walker struct {
	fetcher   DocumentFetcher
	processor CompanyProcessor
	filter    *Filter
	limit     int
	logger    *slog.Logger

	seen  map[string]bool
	stats WalkStats
}

// WalkStats counts what a walk did.
type WalkStats struct {
	// Listings is the number of listing pages read.
	Listings int

	// Companies is the number of records emitted.
	Companies int

	// Duplicates is the number of company links already visited through
	// another category.
	Duplicates int

	// Skipped is the number of categories and pages excluded by the filter.
	Skipped int

	// Failed is the number of pages that could not be read.
	Failed int
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithFilter restricts the categories and pages visited.
func WithFilter(f *Filter) WalkerOption {
	return func(w *Walker) {
		w.filter = f
	}
}

// WithLimit stops the walk after n companies. Zero means no limit.
func WithLimit(n int) WalkerOption {
	return func(w *Walker) {
		w.limit = n
	}
}

// WithWalkerLogger sets the logger.
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// NewWalker returns a Walker reading pages with fetcher and building
// company records with processor.
func NewWalker(fetcher DocumentFetcher, processor CompanyProcessor, opts ...WalkerOption) *Walker {
	w := &Walker{
		fetcher:   fetcher,
		processor: processor,
		filter:    NewFilter(nil),
		logger:    slog.Default(),
		seen:      make(map[string]bool),
	}

	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk visits the index at rootURL and calls fn for every company found.
//
// A company listed in several categories is emitted once, with the
// category it was first found in. Pages that fail are logged and
// skipped; only a failure on the index itself, a cancelled context or an
// error from fn stop the walk.
func (w *Walker) Walk(ctx context.Context, rootURL string, fn RecordFunc) error {
	index, err := w.fetcher.Fetch(ctx, rootURL)
	if err != nil {
		return fmt.Errorf("fetch index: %w", err)
	}

	links, err := extract.ParseIndex(index)
	if err != nil {
		return fmt.Errorf("parse index %s: %w", rootURL, err)
	}
	w.logger.Info("index read", "url", rootURL, "listings", len(links))

	base := documentURL(index, rootURL)
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := w.walkListing(ctx, base, link, fn)
		if errors.Is(err, ErrLimitReached) {
			w.logger.Info("company limit reached", "limit", w.limit)
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the counters of the last walk.
func (w *Walker) Stats() WalkStats {
	return w.stats
}

func (w *Walker) walkListing(ctx context.Context, base *url.URL, link model.LinkRecord, fn RecordFunc) error {
	category := link.Category()
	listingURL := resolveURL(base, link.URL)

	if !w.filter.AllowCategory(link.Title) || !w.filter.AllowURL(listingURL) {
		w.logger.Debug("listing skipped", "category", strings.Join(category, " > "), "url", listingURL)
		w.stats.Skipped++
		return nil
	}

	doc, err := w.fetchListing(ctx, listingURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Warn("listing failed", "url", listingURL, "error", err)
		w.stats.Failed++
		return nil
	}
	w.stats.Listings++

	companies := extract.ParseListing(doc)
	w.logger.Debug("listing read", "category", strings.Join(category, " > "), "url", listingURL, "companies", len(companies))

	listingBase := documentURL(doc, listingURL)
	for _, company := range companies {
		company.URL = resolveURL(listingBase, company.URL)
		company.Category = category

		if err := w.walkCompany(ctx, company, fn); err != nil {
			return err
		}
	}
	return nil
}

// fetchListing fetches a listing, following a script redirect once.
func (w *Walker) fetchListing(ctx context.Context, listingURL string) (*goquery.Document, error) {
	doc, err := w.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	target, ok := ResolveRedirect(doc)
	if !ok {
		return doc, nil
	}
	w.logger.Debug("following script redirect", "from", listingURL, "to", target)
	return w.fetcher.Fetch(ctx, target)
}

func (w *Walker) walkCompany(ctx context.Context, company model.CompanyLink, fn RecordFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := normalizeURL(company.URL)
	if w.seen[key] {
		w.stats.Duplicates++
		return nil
	}
	w.seen[key] = true

	if !w.filter.AllowURL(company.URL) {
		w.stats.Skipped++
		return nil
	}

	rec, err := w.processor.Process(ctx, company)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Warn("company failed", "name", company.Name, "url", company.URL, "error", err)
		w.stats.Failed++
		return nil
	}

	if err := fn(rec); err != nil {
		return err
	}
	w.stats.Companies++

	if w.limit > 0 && w.stats.Companies >= w.limit {
		return ErrLimitReached
	}
	return nil
}

// documentURL returns the URL doc was served from, or fallback.
func documentURL(doc *goquery.Document, fallback string) *url.URL {
	if doc.Url != nil {
		return doc.Url
	}
	u, err := url.Parse(fallback)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// resolveURL resolves ref against base. Unparseable references are
// returned unchanged.
func resolveURL(base *url.URL, ref string) string {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// normalizeURL normalizes a URL for deduplication: the fragment is
// dropped and the scheme and host are lowercased.
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
