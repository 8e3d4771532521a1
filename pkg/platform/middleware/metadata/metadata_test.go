package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, remoteAddr: "10.0.0.1:443", want: "203.0.113.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 198.51.100.4 "}, remoteAddr: "10.0.0.1:443", want: "198.51.100.4"},
		{name: "ipv4 peer", remoteAddr: "192.0.2.1:5123", want: "192.0.2.1"},
		{name: "ipv6 peer", remoteAddr: "[2001:db8::1]:5123", want: "2001:db8::1"},
		{name: "peer without port", remoteAddr: "192.0.2.1", want: "192.0.2.1"},
		{name: "no peer", want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/onboard/state", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var got string
	h := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = GetClientIP(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/onboard/state", nil)
	req.RemoteAddr = "192.0.2.8:1000"
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "192.0.2.8", got)
}
