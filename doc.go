// Package realip resolves the originating client IP address of an HTTP
// request that passed through one or more reverse proxies, without letting
// clients spoof proxy headers.
//
// The resolver reads the proxy-declared hop chain from the "Forwarded",
// "X-Forwarded-For" or "X-Real-IP" header, appends the transport peer
// address as the final hop, and walks the chain from the nearest hop
// outward. The first hop that is not inside a configured trusted proxy
// range is the resolved client IP; if every hop is trusted, the
// earliest-claimed hop is accepted.
//
// # Trusted proxies
//
// To stop clients from spoofing the resolved address, configure the proxy
// networks that are allowed to set forwarding headers. When a request is
// relayed through nested reverse proxies, every proxy in the chain has to
// fall within the trusted ranges for hops beyond it to be believed.
//
//	trusted, err := realip.ParseCIDRs("10.0.0.1/32", "10.10.10.0/24")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resolver, err := realip.New(realip.TrustProxyPrefixes(trusted...))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resolution, err := resolver.Resolve(req)
//	if err != nil {
//	    log.Printf("resolve failed: %v", err)
//	    return
//	}
//
//	fmt.Printf("client IP: %s via %s\n", resolution.IP, resolution.Source)
//
// # Header selection
//
// Exactly one header family contributes hops per request, selected in fixed
// priority order: Forwarded first, then X-Forwarded-For, then X-Real-IP.
// Presence of a header key commits the request to that family even when the
// value yields no parseable hops; an empty Forwarded header does not fall
// through to X-Forwarded-For. Malformed entries within the selected header
// are skipped, never treated as errors.
//
// # Pure form
//
// The resolution algorithm is also available as the package-level RealIP
// function for callers that already hold parsed inputs:
//
//	ip, ok := realip.RealIP(req.Header, peer, trusted)
//
// # Observability
//
// Discarded header segments and truncated chains are reported through an
// optional slog-compatible Logger and a pluggable Metrics interface.
// (Prometheus adapter package: github.com/icewind1991/real-ip/prometheus)
//
//	metrics, _ := realipprom.New()
//
//	resolver, err := realip.New(
//	    realip.TrustLoopbackProxy(),
//	    realip.WithLogger(slog.Default()),
//	    realip.WithMetrics(metrics),
//	)
//
// # Thread safety
//
// Resolver instances are immutable after construction and safe for
// concurrent use. They are typically created once at application startup
// and shared across all requests.
package realip
