// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets the values; the synchronizer and wizard read them without
// importing net/http.
//
//	userID := requestcontext.UserID(ctx)
//	token := requestcontext.BearerToken(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "aplite/pkg/domain"
)

type (
	userIDKey      struct{}
	namespaceKey   struct{}
	bearerTokenKey struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyUserID      = userIDKey{}
	ContextKeyNamespace   = namespaceKey{}
	ContextKeyBearerToken = bearerTokenKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// UserID returns the authenticated user, or the nil id when unset.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// Namespace returns the browser session's draft namespace, or the nil id when unset.
func Namespace(ctx context.Context) id.Namespace {
	if ns, ok := ctx.Value(ContextKeyNamespace).(id.Namespace); ok {
		return ns
	}
	return id.Namespace{}
}

func WithNamespace(ctx context.Context, ns id.Namespace) context.Context {
	return context.WithValue(ctx, ContextKeyNamespace, ns)
}

// BearerToken returns the caller's access token so it can be forwarded to the
// onboarding backend. The web tier never stores it.
func BearerToken(ctx context.Context) string {
	if token, ok := ctx.Value(ContextKeyBearerToken).(string); ok {
		return token
	}
	return ""
}

func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextKeyBearerToken, token)
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, ContextKeyUserAgent, userAgent)
}

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside HTTP requests (CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time, e.g. a fixed clock in tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
