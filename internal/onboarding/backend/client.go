// Package backend is the HTTP client for the onboarding API.
//
// Every call forwards the caller's bearer token, retries transport failures
// and 429/502/503/504 with jittered exponential backoff when the request is
// safe to repeat, and fails fast while the circuit breaker is open. Responses
// are mapped onto coded domain errors:
//
//	404            -> not_found (wrapping sentinel.ErrNotFound)
//	400, 422       -> validation_error carrying the server's field errors
//	409            -> conflict (wrapping sentinel.ErrConflict)
//	429            -> too_many_requests
//	5xx, transport -> unavailable (wrapping sentinel.ErrUnavailable)
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/circuit"
	"aplite/pkg/platform/sentinel"
	"aplite/pkg/requestcontext"
)

const (
	tracerName = "aplite/onboarding/backend"

	HeaderIdempotencyKey = "Idempotency-Key"
	headerRequestID      = "X-Request-ID"

	// maxResponseBytes bounds decoded response bodies.
	maxResponseBytes = 4 << 20
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Observer receives per-call latency. Implemented by the onboarding metrics.
type Observer interface {
	ObserveBackend(operation, outcome string, d time.Duration)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	breaker    *circuit.Breaker
	tracer     trace.Tracer
	observer   Observer
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// withSleep replaces the backoff wait; tests only.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      RetryConfig{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second},
		tracer:     otel.Tracer(tracerName),
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.MaxAttempts < 1 {
		c.retry.MaxAttempts = 1
	}
	if c.retry.BaseDelay <= 0 {
		c.retry.BaseDelay = 200 * time.Millisecond
	}
	if c.retry.MaxDelay <= 0 {
		c.retry.MaxDelay = 5 * time.Second
	}
	if c.breaker == nil {
		c.breaker = circuit.New("onboarding-api")
	}
	return c
}

// Breaker exposes the client's circuit breaker for health reporting.
func (c *Client) Breaker() *circuit.Breaker {
	return c.breaker
}

// request describes one logical API call.
type request struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	idemKey     string
	retryable   bool
	attrs       []attribute.KeyValue
}

func jsonRequest(op, method, path string, payload any) (request, error) {
	req := request{op: op, method: method, path: path}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return req, dErrors.Wrap(err, dErrors.CodeInternal, "encode "+op+" request")
		}
		req.body = body
		req.contentType = "application/json"
	}
	return req, nil
}

// do runs req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "onboarding."+req.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("onboarding.operation", req.op),
			attribute.Bool("onboarding.idempotent", req.idemKey != ""),
		}, req.attrs...)...),
	)
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackend(req.op, outcome(err), time.Since(start))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	if !c.breaker.Allow() {
		return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable, "onboarding service is unavailable, try again shortly")
	}

	attempts := 1
	if req.retryable {
		attempts = c.retry.MaxAttempts
	}
	for attempt := 1; ; attempt++ {
		status, header, body, callErr := c.roundTrip(ctx, req)
		if callErr != nil {
			if ctx.Err() != nil {
				return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "onboarding request cancelled")
			}
			if attempt < attempts {
				c.logRetry(ctx, req, attempt, 0, callErr)
				if err := c.sleep(ctx, c.backoff(attempt, "")); err != nil {
					return dErrors.Wrap(err, dErrors.CodeTimeout, "onboarding request cancelled")
				}
				continue
			}
			c.breaker.RecordFailure()
			return dErrors.Wrap(errors.Join(sentinel.ErrUnavailable, callErr), dErrors.CodeUnavailable, "could not reach the onboarding service, try again")
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))

		if status >= 200 && status < 300 {
			c.breaker.RecordSuccess()
			if out == nil || len(bytes.TrimSpace(body)) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "unexpected "+req.op+" response")
			}
			return nil
		}
		if shouldRetryStatus(status) && attempt < attempts {
			c.logRetry(ctx, req, attempt, status, nil)
			if err := c.sleep(ctx, c.backoff(attempt, header.Get("Retry-After"))); err != nil {
				return dErrors.Wrap(err, dErrors.CodeTimeout, "onboarding request cancelled")
			}
			continue
		}
		if status >= 500 {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return parseError(status, body)
	}
}

func (c *Client) roundTrip(ctx context.Context, req request) (int, http.Header, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, bytes.NewReader(req.body))
	if err != nil {
		return 0, nil, nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.idemKey != "" {
		httpReq.Header.Set(HeaderIdempotencyKey, req.idemKey)
	}
	if token := requestcontext.BearerToken(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		httpReq.Header.Set(headerRequestID, reqID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, resp.Header, body, nil
}

func (c *Client) logRetry(ctx context.Context, req request, attempt, status int, err error) {
	attrs := []any{"operation", req.op, "attempt", attempt}
	if status != 0 {
		attrs = append(attrs, "status", status)
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	c.logger.WarnContext(ctx, "retrying onboarding API call", attrs...)
}

func shouldRetryStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

// backoff honours Retry-After seconds, capped at MaxDelay, and otherwise
// picks a random delay up to BaseDelay*2^(attempt-1).
func (c *Client) backoff(attempt int, retryAfter string) time.Duration {
	if sec, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && sec >= 0 {
		return min(time.Duration(sec)*time.Second, c.retry.MaxDelay)
	}
	ceiling := float64(c.retry.BaseDelay) * math.Pow(2, float64(attempt-1))
	if ceiling > float64(c.retry.MaxDelay) {
		ceiling = float64(c.retry.MaxDelay)
	}
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation:
		return "server_invalid"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return "unavailable"
	case dErrors.CodeTooManyRequests:
		return "rate_limited"
	default:
		return "error"
	}
}
