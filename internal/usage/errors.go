package usage

import "errors"

// ErrInvalidTimeRange indicates a requested window outside the
// supported bounds.
var ErrInvalidTimeRange = errors.New("invalid time range")
