package realip

import "net/netip"

// RealIP resolves the client address of an incoming request from its
// forwarding headers, the transport peer address, and the trusted proxy
// ranges, without requiring a Resolver.
//
// The hop chain declared by the highest-priority forwarding header is
// extended with peer as the final, directly-observed hop. The chain is then
// walked from the nearest hop outward: the first hop not contained in any
// trusted range is returned, since everything beyond it was reported by a
// proxy that is not vouched for. When every hop is trusted, the
// earliest-claimed hop is returned. ok is false only when peer is invalid
// and no header contributed a hop.
//
// All inputs are read-only; RealIP is safe for concurrent use.
func RealIP(headers HeaderValues, peer netip.Addr, trustedProxies []netip.Prefix) (ip netip.Addr, ok bool) {
	return resolveChain(ForwardedFor(headers), peer, prefixListMatcher(trustedProxies))
}

// proxyMatcher tests membership of an address in the trusted proxy set.
type proxyMatcher interface {
	contains(ip netip.Addr) bool
}

// resolveChain runs the trust walk over hops ++ [peer].
//
// Hops are ordered from the claimed origin to the nearest proxy, so the
// walk iterates in reverse, starting at peer. Duplicate addresses are
// processed positionally.
func resolveChain(hops []netip.Addr, peer netip.Addr, trusted proxyMatcher) (netip.Addr, bool) {
	if peer.IsValid() {
		hops = append(hops[:len(hops):len(hops)], peer)
	}

	if len(hops) == 0 {
		return netip.Addr{}, false
	}

	for i := len(hops) - 1; i >= 0; i-- {
		if !trusted.contains(hops[i]) {
			return normalizeIP(hops[i]), true
		}
	}

	// Every hop including the peer is a trusted proxy; accept the declared
	// chain at face value and attribute the request to its first element.
	return normalizeIP(hops[0]), true
}

// prefixListMatcher matches by linear scan over a caller-owned prefix
// slice. Membership is independent of the order of the ranges.
type prefixListMatcher []netip.Prefix

func (m prefixListMatcher) contains(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}

	ip = normalizeIP(ip)
	for _, prefix := range m {
		if canonicalPrefix(prefix).Contains(ip) {
			return true
		}
	}

	return false
}

// canonicalPrefix rewrites a 4-in-6 mapped prefix that covers only mapped
// IPv4 space into its IPv4 form, so it matches hops after they have been
// unmapped. Other prefixes are returned unchanged.
func canonicalPrefix(prefix netip.Prefix) netip.Prefix {
	if addr := prefix.Addr(); addr.Is4In6() && prefix.Bits() >= 96 {
		return netip.PrefixFrom(addr.Unmap(), prefix.Bits()-96)
	}
	return prefix
}

// prefixTrie is a binary trie over address bits, one root per address
// family. It answers containment for a fixed prefix set in O(bits) and is
// built once at Resolver construction, then shared read-only across
// resolutions.
type prefixTrie struct {
	roots [2]*trieNode
}

type trieNode struct {
	children [2]*trieNode
	terminal bool
}

func buildPrefixTrie(prefixes []netip.Prefix) *prefixTrie {
	trie := &prefixTrie{}

	for _, prefix := range prefixes {
		prefix = canonicalPrefix(prefix)
		addr := prefix.Addr()
		if !addr.IsValid() {
			continue
		}

		bits := prefix.Bits()
		if bits < 0 {
			continue
		}
		if bits > addr.BitLen() {
			bits = addr.BitLen()
		}

		root := trie.root(addr, true)
		if addr.Is4() {
			bytes := addr.As4()
			insertPrefixBits(root, bytes[:], bits)
		} else {
			bytes := addr.As16()
			insertPrefixBits(root, bytes[:], bits)
		}
	}

	return trie
}

func (t *prefixTrie) root(addr netip.Addr, create bool) *trieNode {
	family := 0
	if !addr.Is4() {
		family = 1
	}

	if t.roots[family] == nil && create {
		t.roots[family] = &trieNode{}
	}

	return t.roots[family]
}

func (t *prefixTrie) contains(ip netip.Addr) bool {
	if t == nil || !ip.IsValid() {
		return false
	}

	ip = normalizeIP(ip)
	root := t.root(ip, false)
	if root == nil {
		return false
	}

	if ip.Is4() {
		bytes := ip.As4()
		return trieContainsAddr(root, bytes[:])
	}

	bytes := ip.As16()
	return trieContainsAddr(root, bytes[:])
}

func insertPrefixBits(root *trieNode, addr []byte, bits int) {
	node := root
	for bitIndex := 0; bitIndex < bits; bitIndex++ {
		bit := addrBit(addr, bitIndex)
		if node.children[bit] == nil {
			node.children[bit] = &trieNode{}
		}
		node = node.children[bit]
	}

	node.terminal = true
}

func trieContainsAddr(root *trieNode, addr []byte) bool {
	node := root
	if node.terminal {
		return true
	}

	for bitIndex := 0; bitIndex < len(addr)*8; bitIndex++ {
		node = node.children[addrBit(addr, bitIndex)]
		if node == nil {
			return false
		}
		if node.terminal {
			return true
		}
	}

	return false
}

func addrBit(addr []byte, bitIndex int) int {
	shift := uint(7 - (bitIndex % 8))
	return int((addr[bitIndex/8] >> shift) & 1)
}
