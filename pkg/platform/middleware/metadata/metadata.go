package metadata

import (
	"context"
	"net"
	"net/http"
	"strings"

	"aplite/pkg/requestcontext"
)

type clientIPKey struct{}

// ClientMetadata records the caller's IP and User-Agent on the request
// context. Rate limiting keys anonymous callers by this IP.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	return requestcontext.WithUserAgent(context.WithValue(ctx, clientIPKey{}, clientIP), userAgent)
}

// ClientIPFromRequest prefers the left-most X-Forwarded-For hop, then
// X-Real-IP, then the socket peer.
func ClientIPFromRequest(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		if v := r.Header.Get(header); v != "" {
			first, _, _ := strings.Cut(v, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
