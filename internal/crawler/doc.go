// Package crawler fetches the regulator's pages and walks them from the
// category index down to every company.
//
// # Components
//
//   - Fetcher downloads a page and parses it into a goquery document.
//     Bodies are converted to UTF-8 with the charset announced by the
//     server or the page. Requests are spaced by a rate limiter, retried
//     with exponential backoff on server errors, checked against
//     robots.txt, and optionally served from a PageCache.
//   - Walker reads the index, each listing and each company page. Some
//     listings answer with a script that sets document.location instead of
//     an HTTP redirect; ResolveRedirect finds its target and the walker
//     follows it once.
//   - Filter applies the ignore and follow patterns and the skipped
//     categories of the configuration file.
//
// # Usage
//
//	client, err := crawler.NewHTTPClient(time.Minute)
//	fetcher := crawler.NewFetcher(client, crawler.WithRateLimit(1, 1))
//	walker := crawler.NewWalker(fetcher, processor)
//	err = walker.Walk(ctx, rootURL, func(rec *model.CompanyRecord) error {
//		_, err := writer.Write(rec)
//		return err
//	})
//
// The walk is sequential; one request is in flight at a time.
package crawler
