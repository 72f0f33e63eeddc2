package realip

import (
	"context"
	"net/http"
	"net/netip"
	"net/url"
	"sync"
	"testing"
)

type resolutionState struct {
	HasIP    bool
	IP       string
	Source   string
	HopCount int
}

func resolutionStateOf(resolution Resolution) resolutionState {
	state := resolutionState{
		HasIP:    resolution.IP.IsValid(),
		Source:   resolution.Source,
		HopCount: resolution.HopCount,
	}

	if resolution.IP.IsValid() {
		state.IP = resolution.IP.String()
	}

	return state
}

func addrStrings(addrs []netip.Addr) []string {
	if len(addrs) == 0 {
		return nil
	}

	out := make([]string, len(addrs))
	for i, addr := range addrs {
		out[i] = addr.String()
	}

	return out
}

func mustAddr(t *testing.T, s string) netip.Addr {
	t.Helper()

	addr, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("ParseAddr(%q) error = %v", s, err)
	}

	return addr
}

func mustAddrs(t *testing.T, values ...string) []netip.Addr {
	t.Helper()

	addrs := make([]netip.Addr, len(values))
	for i, v := range values {
		addrs[i] = mustAddr(t, v)
	}

	return addrs
}

func mustParseCIDRs(t *testing.T, cidrs ...string) []netip.Prefix {
	t.Helper()

	prefixes, err := ParseCIDRs(cidrs...)
	if err != nil {
		t.Fatalf("ParseCIDRs() error = %v", err)
	}

	return prefixes
}

func mustNewResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()

	resolver, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return resolver
}

func newTestRequest(remoteAddr, path string) *http.Request {
	req := &http.Request{
		RemoteAddr: remoteAddr,
		Header:     make(http.Header),
	}

	if path != "" {
		req.URL = &url.URL{Path: path}
	}

	return req
}

// recordingMetrics captures metric calls for assertions.
type recordingMetrics struct {
	mu        sync.Mutex
	successes map[string]int
	failures  map[string]int
	events    map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		successes: make(map[string]int),
		failures:  make(map[string]int),
		events:    make(map[string]int),
	}
}

func (m *recordingMetrics) RecordResolutionSuccess(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes[source]++
}

func (m *recordingMetrics) RecordResolutionFailure(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[source]++
}

func (m *recordingMetrics) RecordSecurityEvent(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event]++
}

func (m *recordingMetrics) eventCount(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[event]
}

func (m *recordingMetrics) successCount(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successes[source]
}

func (m *recordingMetrics) failureCount(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[source]
}

// recordingLogger captures warning messages for assertions.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
	attrs    [][]any
}

func (l *recordingLogger) WarnContext(_ context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
	l.attrs = append(l.attrs, args)
}

func (l *recordingLogger) messageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
