// Package device binds each browser session to a draft namespace cookie and
// derives a human readable device label from the User-Agent.
package device

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mssola/useragent"

	id "aplite/pkg/domain"
	"aplite/pkg/requestcontext"
)

const CookieName = "aplite_onboarding_ns"

type contextKeyDeviceLabel struct{}

// Namespace reads the namespace cookie, minting a new one when it is missing
// or malformed. The cookie lives only as long as the browser session. secure
// controls the cookie's Secure attribute.
func Namespace(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ns, ok := namespaceFromCookie(r)
			if !ok {
				ns = id.NewNamespace()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    ns.String(),
					Path:     "/",
						HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := requestcontext.WithNamespace(r.Context(), ns)
			ctx = WithDeviceLabel(ctx, Label(r.Header.Get("User-Agent")))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func namespaceFromCookie(r *http.Request) (id.Namespace, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return id.Namespace{}, false
	}
	ns, err := id.ParseNamespace(c.Value)
	if err != nil {
		return id.Namespace{}, false
	}
	return ns, true
}

// Label summarises a User-Agent as "Browser on OS", e.g. "Chrome on Windows 10".
func Label(userAgent string) string {
	if userAgent == "" {
		return "unknown device"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	browser, _ := ua.Browser()
	osName := ua.OSInfo().Name
	if v := ua.OSInfo().Version; v != "" {
		osName = fmt.Sprintf("%s %s", osName, v)
	}
	switch {
	case browser == "" && osName == "":
		return "unknown device"
	case osName == "":
		return browser
	case browser == "":
		return osName
	}
	label := fmt.Sprintf("%s on %s", browser, osName)
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}

// GetDeviceLabel retrieves the device label from the context.
func GetDeviceLabel(ctx context.Context) string {
	if label, ok := ctx.Value(contextKeyDeviceLabel{}).(string); ok {
		return label
	}
	return ""
}

// WithDeviceLabel injects a device label into a context.
func WithDeviceLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, contextKeyDeviceLabel{}, label)
}
