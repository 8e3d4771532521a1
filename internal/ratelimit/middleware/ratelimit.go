package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"aplite/internal/ratelimit/models"
	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/httputil"
	"aplite/pkg/platform/middleware/metadata"
	"aplite/pkg/requestcontext"
)

type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Observer counts rejected requests.
type Observer interface {
	IncrementRateLimited(class string)
}

type Middleware struct {
	store    BucketStore
	limits   map[models.EndpointClass]models.Limit
	observer Observer
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithLimits overrides the budget of the given classes.
func WithLimits(limits map[models.EndpointClass]models.Limit) Option {
	return func(m *Middleware) {
		for class, l := range limits {
			if l.Requests > 0 && l.Window > 0 {
				m.limits[class] = l
			}
		}
	}
}

func WithObserver(o Observer) Option {
	return func(m *Middleware) {
		m.observer = o
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limits: models.DefaultLimits(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimitAuthenticated budgets requests per user, or per client IP when the
// request carries no user. A store failure lets the request through.
func (m *Middleware) RateLimitAuthenticated(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit, ok := m.limits[class]
			if m.disabled || !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := bucketKey(ctx, class)
			result, err := m.store.Allow(ctx, key, limit.Requests, limit.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit", "error", err, "class", string(class))
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				if m.observer != nil {
					m.observer.IncrementRateLimited(string(class))
				}
				m.logger.WarnContext(ctx, "rate limit exceeded", "class", string(class), "retry_after", result.RetryAfter)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests, "Too many requests. Please wait a moment and try again."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bucketKey(ctx context.Context, class models.EndpointClass) string {
	if user := requestcontext.UserID(ctx); !user.IsNil() {
		return string(class) + ":user:" + user.String()
	}
	return string(class) + ":ip:" + metadata.GetClientIP(ctx)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
