package service

import "errors"

var (
	// ErrRefreshBusy is returned to a manual refresh caller while a cycle
	// is already in flight.
	ErrRefreshBusy = errors.New("a refresh cycle is already running")

	// ErrTickerNotFound is the non-fatal "no match" result of a resolve.
	ErrTickerNotFound = errors.New("no matching ticker found")

	// ErrInvalidWatchlist rejects a replace batch containing an entry
	// without both name and code.
	ErrInvalidWatchlist = errors.New("watchlist is empty or contains invalid entries")
)
