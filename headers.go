package realip

import (
	"net"
	"net/netip"
	"strings"
)

const (
	// SourceForwarded identifies the RFC 7239 Forwarded header family.
	SourceForwarded = "forwarded"
	// SourceXForwardedFor identifies the X-Forwarded-For header family.
	SourceXForwardedFor = "x_forwarded_for"
	// SourceXRealIP identifies the X-Real-IP header family.
	SourceXRealIP = "x_real_ip"
	// SourceRemoteAddr identifies resolutions where no forwarding header was
	// present and only the transport peer entered the chain.
	SourceRemoteAddr = "remote_addr"
)

// typicalChainCapacity is the initial capacity used when collecting hop
// chains. Most deployments have short chains (around 1-5 hops), so
// preallocating 8 avoids reallocations in common cases.
const typicalChainCapacity = 8

// headerFamily binds one forwarding header to its source name and scanner.
type headerFamily struct {
	key    string
	source string
	scan   func(value string, onDiscard func(segment string)) []netip.Addr
}

// headerFamilies lists the supported forwarding headers in priority order.
// The first family whose header key is present wins; lower-priority headers
// are never consulted for that request, even when the winning header value
// yields no hops.
var headerFamilies = []headerFamily{
	{key: "Forwarded", source: SourceForwarded, scan: scanForwardedValue},
	{key: "X-Forwarded-For", source: SourceXForwardedFor, scan: scanXForwardedForValue},
	{key: "X-Real-IP", source: SourceXRealIP, scan: scanRealIPValue},
}

// selectHeaderFamily picks the highest-priority forwarding header present in
// the request. Presence is determined by the header key existing, not by the
// value being parseable.
func selectHeaderFamily(headers HeaderValues) (headerFamily, []string, bool) {
	if headers == nil {
		return headerFamily{}, nil, false
	}

	for _, family := range headerFamilies {
		values := headers.Values(family.key)
		if len(values) > 0 {
			return family, values, true
		}
	}

	return headerFamily{}, nil, false
}

// ForwardedFor extracts the proxy-declared hop chain from the highest
// priority forwarding header present in headers, ordered from the claimed
// origin to the nearest proxy.
//
// Note that this performs no validation against clients forging the
// headers; use RealIP or a Resolver for trust-filtered resolution.
func ForwardedFor(headers HeaderValues) []netip.Addr {
	family, values, ok := selectHeaderFamily(headers)
	if !ok {
		return nil
	}

	hops := make([]netip.Addr, 0, typicalChainCapacity)
	for _, value := range values {
		hops = append(hops, family.scan(value, nil)...)
	}
	return hops
}

// ExtractXForwardedForHeader returns the IP addresses listed in one
// X-Forwarded-For header value, ordered from the claimed origin to the
// nearest proxy. Segments that do not normalize to a valid address are
// dropped.
func ExtractXForwardedForHeader(value string) []netip.Addr {
	return scanXForwardedForValue(value, nil)
}

// ExtractRealIPHeader returns the address carried by one X-Real-IP header
// value, or an empty slice when the value does not normalize to a valid
// address.
func ExtractRealIPHeader(value string) []netip.Addr {
	return scanRealIPValue(value, nil)
}

func scanXForwardedForValue(value string, onDiscard func(string)) []netip.Addr {
	var hops []netip.Addr

	for _, segment := range strings.Split(value, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		ip := parseHopSegment(segment)
		if !ip.IsValid() {
			if onDiscard != nil {
				onDiscard(segment)
			}
			continue
		}

		hops = append(hops, ip)
	}

	return hops
}

func scanRealIPValue(value string, onDiscard func(string)) []netip.Addr {
	segment := strings.TrimSpace(value)
	if segment == "" {
		return nil
	}

	ip := parseHopSegment(segment)
	if !ip.IsValid() {
		if onDiscard != nil {
			onDiscard(segment)
		}
		return nil
	}

	return []netip.Addr{ip}
}

// parseHopSegment normalizes one header segment and parses it as an IP
// address. Normalization removes one layer of double quotes (resolving
// backslash escapes inside the quoted span) and one layer of square
// brackets around IPv6 literals.
//
// Returns an invalid netip.Addr (IsValid() == false) if parsing fails.
func parseHopSegment(segment string) netip.Addr {
	ip, _ := netip.ParseAddr(trimBrackets(unquoteSegment(segment)))
	return ip
}

// unquoteSegment removes one layer of surrounding double quotes, resolving
// backslash escapes so an escaped quote or backslash is copied literally
// instead of terminating the quoted span. The scan stops at the first
// unescaped closing quote; anything after it is discarded. Text without a
// leading quote passes through unchanged without allocating.
func unquoteSegment(segment string) string {
	if len(segment) == 0 || segment[0] != '"' {
		return segment
	}

	var b strings.Builder
	b.Grow(len(segment))
	escaped := false

	for i := 1; i < len(segment); i++ {
		ch := segment[i]

		if escaped {
			b.WriteByte(ch)
			escaped = false
			continue
		}

		switch ch {
		case '\\':
			escaped = true
		case '"':
			return b.String()
		default:
			b.WriteByte(ch)
		}
	}

	return b.String()
}

// trimBrackets removes one matching pair of surrounding square brackets,
// the notation used for IPv6 literals in forwarding headers.
func trimBrackets(s string) string {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return s
	}
	return s[1 : len(s)-1]
}

// parseRemoteAddr extracts the transport peer address from a
// Request.RemoteAddr style value, accepting both host:port and bare host
// forms.
func parseRemoteAddr(remoteAddr string) netip.Addr {
	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return netip.Addr{}
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remoteAddr = host
	}

	ip, _ := netip.ParseAddr(trimBrackets(remoteAddr))
	return ip
}

func normalizeIP(ip netip.Addr) netip.Addr {
	if ip.Is4In6() {
		return ip.Unmap()
	}
	return ip
}
