// Package requesttime pins a single "now" per request so draft timestamps,
// audit events and logs agree.
package requesttime

import (
	"net/http"
	"time"

	"aplite/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return Clock(time.Now)(next)
}

// Clock is Middleware with an injectable time source.
func Clock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
