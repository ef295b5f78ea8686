package domain

import "errors"

// Domain errors (no external dependencies).
var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnauthorized signals that the source API rejected the current
	// session (expired cookie). The pager refreshes once and retries the page.
	ErrSourceUnauthorized = errors.New("source API rejected the session")

	// ErrAuthRefreshFailed means the session refresh did not yield a usable
	// session after the permitted single retry. Fatal for the whole fetch.
	ErrAuthRefreshFailed = errors.New("session refresh failed")

	// ErrPaginationOverrun means the page-count safety ceiling was reached
	// before the source signaled completion. Accumulated data is still returned.
	ErrPaginationOverrun = errors.New("pagination safety ceiling reached")
)
