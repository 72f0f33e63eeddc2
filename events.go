package realip

const (
	securityEventDiscardedSegment = "discarded_segment"
	securityEventChainTruncated   = "chain_truncated"
	securityEventNoPeerAddress    = "no_peer_address"
)
