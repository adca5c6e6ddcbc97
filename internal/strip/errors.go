package strip

import "errors"

var (
	// ErrInvalidMode is returned for unknown mode names.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrMissingParameter is returned when a periodic mode has no usable period.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrInvalidBody is returned for malformed or out-of-range color bodies.
	ErrInvalidBody = errors.New("invalid body")
)
