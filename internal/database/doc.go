// Package database provides SQLite-based storage for secregistry.
//
// PageDB caches the decoded HTML of fetched pages by URL so that an
// interrupted scrape can be resumed without hitting the regulator's
// servers again. It satisfies crawler.PageCache.
//
// The database is a single file in the XDG cache directory, opened with
// the CGO-free modernc.org/sqlite driver.
package database
