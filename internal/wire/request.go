// Package wire implements the HTTP subset spoken on the control port: an
// incremental request parser that never blocks, and response encoding.
package wire

import "errors"

// Methods understood by the router. Other tokens still parse and simply fail
// to match a route.
const (
	MethodGet = "GET"
	MethodPut = "PUT"
)

var (
	// ErrMalformedRequest means the received bytes are not a request.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrRequestTooLarge means a path, header section, or body exceeded its bound.
	ErrRequestTooLarge = errors.New("request too large")
)

// Request is one parsed request. It lives for a single connection.
type Request struct {
	Method string
	Path   string
	// Query is the raw text after '?', without the '?'. Routing ignores it.
	Query string
	// Proto is empty for a bare "METHOD PATH" request line.
	Proto string
	Body  []byte
}

// Limits bounds how much a single request may buffer.
type Limits struct {
	MaxPathBytes   int
	MaxHeaderBytes int
	MaxBodyBytes   int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxPathBytes:   128,
		MaxHeaderBytes: 2048,
		MaxBodyBytes:   256,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxPathBytes <= 0 {
		l.MaxPathBytes = d.MaxPathBytes
	}
	if l.MaxHeaderBytes <= 0 {
		l.MaxHeaderBytes = d.MaxHeaderBytes
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = d.MaxBodyBytes
	}
	return l
}
