package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrDisallowed is returned when robots.txt forbids fetching a URL.
	ErrDisallowed = errors.New("disallowed by robots.txt")

	// ErrInvalidProxyAddress is returned when the proxy is neither a
	// "host:port" pair nor a socks5/http URL.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port or socks5://host:port")

	// ErrInvalidURL is returned when a page URL cannot be fetched
	// because it is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid page URL")
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
