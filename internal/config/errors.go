package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidRootURL is returned when the root URL is not an absolute
	// http or https URL.
	ErrInvalidRootURL = errors.New("invalid root URL: must be an absolute http(s) URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRate is returned when the request rate or burst is negative.
	// Use a rate of 0 to disable rate limiting.
	ErrInvalidRate = errors.New("invalid rate: must be non-negative")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLimit is returned when the company limit is negative.
	ErrInvalidLimit = errors.New("invalid limit: must be non-negative")

	// ErrInvalidCacheTTL is returned when the cache TTL is negative.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be non-negative")
)
