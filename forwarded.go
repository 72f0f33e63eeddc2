package realip

import (
	"net"
	"net/netip"
	"strings"
)

// ExtractForwardedHeader returns the IP addresses claimed by the for=
// parameters of one RFC 7239 Forwarded header value, ordered from the
// claimed origin to the nearest proxy.
//
// Elements without a for parameter, with a non-IP node identifier (an
// obfuscated _token or "unknown"), or with malformed parameters contribute
// nothing; a broken element never fails the rest of the header.
func ExtractForwardedHeader(value string) []netip.Addr {
	return scanForwardedValue(value, nil)
}

// scanForwardedValue walks the comma-separated elements of a Forwarded
// header value and collects the address of every element whose for
// parameter holds an IP literal. Elements that carry a for parameter (or
// are malformed) but yield no address are passed to onDiscard when
// provided; elements without a for parameter are skipped silently.
func scanForwardedValue(value string, onDiscard func(segment string)) []netip.Addr {
	var hops []netip.Addr

	scanQuotedSegments(value, ',', func(element string) {
		ip, claimed := forwardedElementAddr(element)
		if !claimed {
			return
		}

		if !ip.IsValid() {
			if onDiscard != nil {
				onDiscard(element)
			}
			return
		}

		hops = append(hops, ip)
	})

	return hops
}

// forwardedElementAddr parses a single Forwarded element and returns the
// address of its for parameter. claimed reports whether the element tried
// to contribute a hop: it is true when a for parameter is present or the
// element is malformed, and false for well-formed elements that only carry
// other parameters (proto=, by=, ...).
//
// Parameter names are matched case-insensitively. A duplicate for parameter
// or a parameter without a key=value shape makes the whole element
// malformed.
func forwardedElementAddr(element string) (ip netip.Addr, claimed bool) {
	hasFor := false
	malformed := false

	scanQuotedSegments(element, ';', func(param string) {
		if malformed {
			return
		}

		eq := strings.IndexByte(param, '=')
		if eq <= 0 {
			malformed = true
			return
		}

		key := strings.TrimSpace(param[:eq])
		value := strings.TrimSpace(param[eq+1:])
		if key == "" || value == "" {
			malformed = true
			return
		}

		if !strings.EqualFold(key, "for") {
			return
		}

		if hasFor {
			malformed = true
			return
		}

		hasFor = true
		ip = parseForwardedNode(value)
	})

	if malformed {
		return netip.Addr{}, true
	}

	return ip, hasFor
}

// parseForwardedNode parses a Forwarded node identifier into an address.
// The identifier may be quoted and may carry a port ("192.0.2.1:8080",
// "[2001:db8::1]:8080"); token-form identifiers are not IPs and parse to an
// invalid address.
func parseForwardedNode(value string) netip.Addr {
	node := unquoteSegment(value)

	if host, _, err := net.SplitHostPort(node); err == nil {
		node = host
	}

	ip, _ := netip.ParseAddr(trimBrackets(node))
	return ip
}

// scanQuotedSegments splits value by delimiter while respecting quoted
// spans and backslash escapes inside them, trimming surrounding whitespace
// and skipping empty segments. An unterminated quote or escape at the end
// of the value flushes the remainder as a final segment instead of
// failing.
func scanQuotedSegments(value string, delimiter byte, onSegment func(string)) {
	start := 0
	inQuotes := false
	escaped := false

	for i := 0; i < len(value); i++ {
		ch := value[i]

		if escaped {
			escaped = false
			continue
		}

		switch {
		case ch == '\\' && inQuotes:
			escaped = true
		case ch == '"':
			inQuotes = !inQuotes
		case ch == delimiter && !inQuotes:
			if segment := strings.TrimSpace(value[start:i]); segment != "" {
				onSegment(segment)
			}
			start = i + 1
		}
	}

	if segment := strings.TrimSpace(value[start:]); segment != "" {
		onSegment(segment)
	}
}
