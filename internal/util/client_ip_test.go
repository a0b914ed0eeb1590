package util

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPResolution(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"172.16.0.0/12", "203.0.113.9"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	tests := []struct {
		name    string
		peer    string
		xff     string
		realIP  string
		trusted *TrustedProxies
		want    string
	}{
		{
			name: "headers from untrusted peer ignored",
			peer: "198.51.100.44:9001",
			xff:  "192.0.2.1",
			want: "198.51.100.44",
		},
		{
			name:    "trusted proxy forwards client address",
			peer:    "172.16.4.2:9001",
			xff:     "192.0.2.1",
			trusted: trusted,
			want:    "192.0.2.1",
		},
		{
			name:    "chain resolves first untrusted hop from the right",
			peer:    "172.16.4.2:9001",
			xff:     "192.0.2.1, 172.16.9.9",
			trusted: trusted,
			want:    "192.0.2.1",
		},
		{
			name:    "x-real-ip fallback when chain is garbage",
			peer:    "172.16.4.2:9001",
			xff:     "not-an-address",
			realIP:  "192.0.2.7",
			trusted: trusted,
			want:    "192.0.2.7",
		},
		{
			name:    "fully trusted chain yields leftmost hop",
			peer:    "172.16.4.2:9001",
			xff:     "172.16.1.1, 172.16.2.2",
			trusted: trusted,
			want:    "172.16.1.1",
		},
		{
			name:    "single-address trust entry",
			peer:    "203.0.113.9:9001",
			xff:     "192.0.2.5",
			trusted: trusted,
			want:    "192.0.2.5",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://shelfmark.local/books", nil)
			req.RemoteAddr = tc.peer
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req, tc.trusted); got != tc.want {
				t.Fatalf("client ip = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewTrustedProxiesParsing(t *testing.T) {
	if tp, err := NewTrustedProxies([]string{"", "  "}); err != nil || tp != nil {
		t.Fatalf("blank entries should yield the trust-nobody value, got %v, %v", tp, err)
	}
	if _, err := NewTrustedProxies([]string{"172.16.0.0/12", "2001:db8::1"}); err != nil {
		t.Fatalf("valid entries rejected: %v", err)
	}
	if _, err := NewTrustedProxies([]string{"not-a-network"}); err == nil {
		t.Fatal("expected a parse error")
	}
}
