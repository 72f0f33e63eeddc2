package realip

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
)

// Resolver resolves the real client IP of HTTP requests and
// framework-agnostic request inputs.
//
// Resolver instances are safe for concurrent reuse.
type Resolver struct {
	config *config
}

// New creates a Resolver from one or more Option builders.
func New(opts ...Option) (*Resolver, error) {
	cfg, err := configFromOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Resolver{config: cfg}, nil
}

// Resolve resolves the client IP and metadata for the request.
//
// The transport peer is taken from r.RemoteAddr. The only resolution error
// is ErrNoPeerAddress, for the degenerate case where the peer address is
// unusable and no forwarding header contributed a hop; malformed header
// content is never an error.
func (res *Resolver) Resolve(r *http.Request) (Resolution, error) {
	ctx := requestContext(r)
	if r == nil {
		r = &http.Request{}
	}

	var headers HeaderValues
	if r.Header != nil {
		headers = r.Header
	}

	return res.resolve(ctx, headers, r.RemoteAddr, requestPath(r))
}

// ResolveAddr resolves only the client IP address.
func (res *Resolver) ResolveAddr(r *http.Request) (netip.Addr, error) {
	resolution, err := res.Resolve(r)
	if err != nil {
		return netip.Addr{}, err
	}

	return resolution.IP, nil
}

// ResolveFrom resolves the client IP and metadata from framework-agnostic
// request input.
func (res *Resolver) ResolveFrom(input RequestInput) (Resolution, error) {
	ctx := requestInputContext(input)
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	return res.resolve(ctx, input.Headers, input.RemoteAddr, input.Path)
}

// ResolveAddrFrom resolves only the client IP address from
// framework-agnostic request input.
func (res *Resolver) ResolveAddrFrom(input RequestInput) (netip.Addr, error) {
	resolution, err := res.ResolveFrom(input)
	if err != nil {
		return netip.Addr{}, err
	}

	return resolution.IP, nil
}

// ResolveWithOptions is a one-shot convenience helper.
//
// It constructs a temporary resolver from opts and resolves metadata for r.
func ResolveWithOptions(r *http.Request, opts ...Option) (Resolution, error) {
	resolver, err := New(opts...)
	if err != nil {
		return Resolution{}, err
	}

	return resolver.Resolve(r)
}

// ResolveAddrWithOptions is a one-shot convenience helper.
//
// It constructs a temporary resolver from opts and resolves only the client
// IP address for r.
func ResolveAddrWithOptions(r *http.Request, opts ...Option) (netip.Addr, error) {
	resolver, err := New(opts...)
	if err != nil {
		return netip.Addr{}, err
	}

	return resolver.ResolveAddr(r)
}

func (res *Resolver) resolve(ctx context.Context, headers HeaderValues, remoteAddr, path string) (Resolution, error) {
	hops, sourceName := res.collectHops(ctx, headers, remoteAddr, path)
	if sourceName == "" {
		sourceName = SourceRemoteAddr
	}

	peer := parseRemoteAddr(remoteAddr)
	ip, ok := resolveChain(hops, peer, res.config.trustedProxyMatch)
	if !ok {
		res.config.metrics.RecordSecurityEvent(securityEventNoPeerAddress)
		res.logWarning(ctx, sourceName, remoteAddr, path, securityEventNoPeerAddress,
			"request has no usable peer address and no forwarded hops")
		res.config.metrics.RecordResolutionFailure(sourceName)
		return Resolution{Source: sourceName}, &ResolutionError{
			Err:        ErrNoPeerAddress,
			Source:     sourceName,
			RemoteAddr: remoteAddr,
		}
	}

	res.config.metrics.RecordResolutionSuccess(sourceName)
	return Resolution{
		IP:       ip,
		Source:   sourceName,
		HopCount: len(hops),
	}, nil
}

// collectHops extracts the hop chain from the highest-priority forwarding
// header present. The returned source name is empty when no forwarding
// header exists; a present header commits its family even when it yields no
// hops.
func (res *Resolver) collectHops(ctx context.Context, headers HeaderValues, remoteAddr, path string) ([]netip.Addr, string) {
	family, values, ok := selectHeaderFamily(headers)
	if !ok {
		return nil, ""
	}

	hops := make([]netip.Addr, 0, typicalChainCapacity)
	for _, value := range values {
		hops = append(hops, family.scan(value, func(segment string) {
			res.config.metrics.RecordSecurityEvent(securityEventDiscardedSegment)
			res.logWarning(ctx, family.source, remoteAddr, path, securityEventDiscardedSegment,
				"discarded unparseable hop segment",
				"segment", segment,
			)
		})...)
	}

	if len(hops) > res.config.maxChainLength {
		// Keep the hops nearest to us; the far end of an oversized chain is
		// the part most easily padded by a hostile client.
		dropped := len(hops) - res.config.maxChainLength
		hops = hops[dropped:]

		res.config.metrics.RecordSecurityEvent(securityEventChainTruncated)
		res.logWarning(ctx, family.source, remoteAddr, path, securityEventChainTruncated,
			"hop chain exceeds configured maximum length",
			"dropped_hops", dropped,
			"max_length", res.config.maxChainLength,
		)
	}

	return hops, family.source
}

func (res *Resolver) logWarning(ctx context.Context, sourceName, remoteAddr, path, event, msg string, attrs ...any) {
	baseAttrs := []any{
		"event", event,
		"source", sourceName,
		"path", path,
		"remote_addr", remoteAddr,
	}

	baseAttrs = append(baseAttrs, attrs...)
	res.config.logger.WarnContext(ctx, msg, baseAttrs...)
}

func requestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}

	return r.Context()
}

func requestPath(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Path
}
