package realip

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrNoPeerAddress is returned when a request carries no usable transport
// peer address and no forwarding header contributed any hop, leaving the
// resolver with an empty chain.
var ErrNoPeerAddress = errors.New("no usable peer address in request")

// ResolutionError wraps a resolution failure with the header source that was
// active when it occurred.
type ResolutionError struct {
	Err        error
	Source     string
	RemoteAddr string
}

func (e *ResolutionError) Error() string {
	if e.RemoteAddr != "" {
		return fmt.Sprintf("%s: %v (remote_addr=%q)", e.Source, e.Err, e.RemoteAddr)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) SourceName() string {
	return e.Source
}

// Resolution is the outcome of resolving one request.
type Resolution struct {
	// IP is the address attributed to the original client.
	IP netip.Addr

	// Source names the header family that contributed the hop chain:
	// SourceForwarded, SourceXForwardedFor, SourceXRealIP, or
	// SourceRemoteAddr when no forwarding header was present.
	Source string

	// HopCount is the number of header-declared hops that entered the trust
	// walk, excluding the transport peer.
	HopCount int
}

// Valid reports whether the resolution produced a usable address.
func (r Resolution) Valid() bool {
	return r.IP.IsValid()
}

// ParseCIDRs parses CIDR strings into prefixes for trusted proxy
// configuration.
func ParseCIDRs(cidrs ...string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}
