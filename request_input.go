package realip

import (
	"context"
)

// HeaderValues provides access to request header values by name.
//
// Lookups must be case-insensitive with respect to the original wire
// header names; names are requested in canonical MIME format (for example
// "X-Forwarded-For"). Implementations should return one slice entry per
// received header line. A header that was received with an empty value must
// still yield a (single, empty) entry, since presence of a forwarding
// header selects its family even when the value contributes no hops.
//
// net/http's http.Header satisfies this interface directly.
type HeaderValues interface {
	Values(name string) []string
}

// HeaderValuesFunc adapts a function to the HeaderValues interface.
type HeaderValuesFunc func(name string) []string

// Values implements HeaderValues.
func (f HeaderValuesFunc) Values(name string) []string {
	if f == nil {
		return nil
	}

	return f(name)
}

// RequestInput provides framework-agnostic request data for resolution,
// for callers not using net/http (fasthttp, gRPC gateways, log replay).
//
// Context defaults to context.Background() when nil. RemoteAddr is the
// transport peer in host:port or bare host form. Path is optional and only
// used to annotate warning logs.
type RequestInput struct {
	Context    context.Context
	RemoteAddr string
	Path       string
	Headers    HeaderValues
}

func requestInputContext(input RequestInput) context.Context {
	if input.Context == nil {
		return context.Background()
	}

	return input.Context
}
