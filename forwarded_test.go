package realip

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractForwardedHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			name:  "single for value",
			value: "for=192.0.2.1",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "case-insensitive parameter name",
			value: "For=192.0.2.1",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "multiple elements",
			value: "for=10.10.10.10, for=10.10.10.20",
			want:  []string{"10.10.10.10", "10.10.10.20"},
		},
		{
			name:  "additional parameters ignored",
			value: "for=192.0.2.1;proto=https;by=10.0.0.1",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "mixed elements with and without for",
			value: "proto=https;by=10.0.0.1, for=203.0.113.10;proto=https",
			want:  []string{"203.0.113.10"},
		},
		{
			name:  "quoted IPv6 with port",
			value: `for="[2606:4700:4700::1]:8080"`,
			want:  []string{"2606:4700:4700::1"},
		},
		{
			name:  "IPv4 with port",
			value: "for=192.0.2.1:8080",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "quoted IPv4",
			value: `for="192.0.2.1"`,
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "obfuscated identifier skipped",
			value: "for=_hidden, for=192.0.2.1",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "unknown identifier skipped",
			value: "for=unknown, for=192.0.2.1",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "malformed element skipped not fatal",
			value: "for, for=192.0.2.1",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "duplicate for in one element skips that element",
			value: "for=10.0.0.1;for=10.0.0.2, for=192.0.2.1",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "unterminated quoted string still yields scanned address",
			value: `for="192.0.2.1`,
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "empty parameter value skips element",
			value: "for=, for=192.0.2.1",
			want:  []string{"192.0.2.1"},
		},
		{
			name:  "comma inside quotes does not split",
			value: `for="192.0.2.1,203.0.113.9", for=10.10.10.10`,
			want:  []string{"10.10.10.10"},
		},
		{
			name:  "no for parameter at all",
			value: "proto=https;by=203.0.113.43",
			want:  nil,
		},
		{
			name:  "empty value",
			value: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addrStrings(ExtractForwardedHeader(tt.value))

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExtractForwardedHeader(%q) mismatch (-want +got):\n%s", tt.value, diff)
			}
		})
	}
}

func TestScanForwardedValue_DiscardCallback(t *testing.T) {
	var discarded []string
	got := scanForwardedValue("for=unknown, proto=https, for=192.0.2.1, for", func(segment string) {
		discarded = append(discarded, segment)
	})

	if diff := cmp.Diff([]string{"192.0.2.1"}, addrStrings(got)); diff != "" {
		t.Errorf("scanForwardedValue() hops mismatch (-want +got):\n%s", diff)
	}

	// proto-only elements are well-formed non-claims and must not be
	// reported; the unknown token and the malformed element must be.
	if diff := cmp.Diff([]string{"for=unknown", "for"}, discarded); diff != "" {
		t.Errorf("scanForwardedValue() discards mismatch (-want +got):\n%s", diff)
	}
}

func TestScanQuotedSegments(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		delimiter byte
		want      []string
	}{
		{
			name:      "plain split",
			value:     "a, b ,c",
			delimiter: ',',
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "delimiter inside quotes kept",
			value:     `a, "b, c", d`,
			delimiter: ',',
			want:      []string{"a", `"b, c"`, "d"},
		},
		{
			name:      "escaped quote inside quotes",
			value:     `"a\"b", c`,
			delimiter: ',',
			want:      []string{`"a\"b"`, "c"},
		},
		{
			name:      "unterminated quote flushes remainder",
			value:     `a, "b, c`,
			delimiter: ',',
			want:      []string{"a", `"b, c`},
		},
		{
			name:      "semicolon split",
			value:     "for=1.1.1.1;proto=https",
			delimiter: ';',
			want:      []string{"for=1.1.1.1", "proto=https"},
		},
		{
			name:      "empty segments skipped",
			value:     ",,a,,",
			delimiter: ',',
			want:      []string{"a"},
		},
		{
			name:      "empty value",
			value:     "",
			delimiter: ',',
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			scanQuotedSegments(tt.value, tt.delimiter, func(segment string) {
				got = append(got, segment)
			})

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("scanQuotedSegments(%q) mismatch (-want +got):\n%s", tt.value, diff)
			}
		})
	}
}
