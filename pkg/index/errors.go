package index

import "errors"

var (
	// ErrNotFound is returned when a package doesn't exist on the index.
	ErrNotFound = errors.New("package not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrUnavailable is returned when an index's circuit breaker is open
	// after repeated failures.
	ErrUnavailable = errors.New("index unavailable")
)
