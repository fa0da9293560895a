package http

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── ヘルパ ───────── */

func requestFrom(remoteAddr string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

/* ───────── RemoteAddrExtractor ───────── */

func TestRemoteAddrExtractor(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
		wantErr    bool
	}{
		{name: "ipv4 with port", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "ipv6 with port", remoteAddr: "[2001:db8::1]:8080", want: "2001:db8::1"},
		{name: "no port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "headers ignored", remoteAddr: "10.0.0.1:1", headers: map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "203.0.113.6"}, want: "10.0.0.1"},
		{name: "garbage", remoteAddr: "not-an-addr", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RemoteAddrExtractor{}.ExtractIP(requestFrom(tt.remoteAddr, tt.headers))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

/* ───────── TrustedProxyExtractor ───────── */

func TestTrustedProxyExtractor(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "2001:db8::/32"})
	require.NoError(t, err)
	e := NewTrustedProxyExtractor(TrustedProxyConfig{Enabled: true, AllowedCIDRs: proxies})

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "untrusted peer ignores headers", remoteAddr: "198.51.100.7:1", headers: map[string]string{"X-Forwarded-For": "203.0.113.5"}, want: "198.51.100.7"},
		{name: "trusted peer single hop", remoteAddr: "10.0.0.2:1", headers: map[string]string{"X-Forwarded-For": "203.0.113.5"}, want: "203.0.113.5"},
		{name: "forged left entry skipped", remoteAddr: "10.0.0.2:1", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.5"}, want: "203.0.113.5"},
		{name: "chained trusted proxies", remoteAddr: "10.0.0.2:1", headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.1.1.1"}, want: "203.0.113.5"},
		{name: "real ip fallback", remoteAddr: "[2001:db8::2]:1", headers: map[string]string{"X-Real-IP": "203.0.113.9"}, want: "203.0.113.9"},
		{name: "no headers", remoteAddr: "10.0.0.2:1", want: "10.0.0.2"},
		{name: "invalid forwarded for", remoteAddr: "10.0.0.2:1", headers: map[string]string{"X-Forwarded-For": "garbage"}, want: "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractIP(requestFrom(tt.remoteAddr, tt.headers))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrustedProxyExtractor_Disabled(t *testing.T) {
	e := NewTrustedProxyExtractor(TrustedProxyConfig{})
	got, err := e.ExtractIP(requestFrom("10.0.0.2:1", map[string]string{"X-Forwarded-For": "203.0.113.5"}))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", got)
}

/* ───────── ParseTrustedProxies ───────── */

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies([]string{"192.168.1.1", " 10.0.0.0/8 ", "", "2001:db8::1"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("192.168.1.1/32"),
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("2001:db8::1/128"),
	}, got)

	_, err = ParseTrustedProxies([]string{"10.0.0.0/8", "nope"})
	assert.Error(t, err)
}
