package realip

// PresetDirectConnection configures resolution for direct client-to-app
// traffic.
//
// With no trusted proxies configured, every request resolves to its
// transport peer address regardless of forwarding headers.
func PresetDirectConnection() Option {
	return func(c *config) error {
		return nil
	}
}

// PresetLoopbackReverseProxy configures resolution for apps behind a
// reverse proxy on the same host (for example NGINX on localhost).
func PresetLoopbackReverseProxy() Option {
	return TrustLoopbackProxy()
}

// PresetVMReverseProxy configures resolution for apps behind a reverse
// proxy in a typical VM or private-network setup.
//
// It trusts loopback and private network CIDRs.
func PresetVMReverseProxy() Option {
	return TrustLocalProxyDefaults()
}
