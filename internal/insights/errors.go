package insights

import "errors"

var (
	// ErrBackendUnavailable indicates the log backend rejected or failed
	// the query.
	ErrBackendUnavailable = errors.New("log backend unavailable")

	// ErrQueryTimeout indicates the query did not complete within the
	// configured deadline.
	ErrQueryTimeout = errors.New("query timed out")
)
