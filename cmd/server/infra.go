package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"aplite/internal/onboarding/drafts"
	"aplite/internal/onboarding/drafts/store"
	onboardingmetrics "aplite/internal/onboarding/metrics"
	ratelimitmw "aplite/internal/ratelimit/middleware"
	ratelimit "aplite/internal/ratelimit/models"
	"aplite/internal/ratelimit/store/bucket"
	"aplite/internal/platform/config"
	"aplite/internal/platform/kafka"
	"aplite/internal/platform/postgres"
	"aplite/internal/platform/redis"
	"aplite/pkg/platform/audit"
	kafkastore "aplite/pkg/platform/audit/store/kafka"
	"aplite/pkg/platform/audit/store/memory"
	"aplite/pkg/platform/httputil"
)

// infrastructure owns the connections opened at startup and reports their
// health on /healthz.
type infrastructure struct {
	checks  map[string]func(context.Context) error
	closers []func()
	redis   *redis.Client
}

func (i *infrastructure) check(name string, fn func(context.Context) error) {
	if i.checks == nil {
		i.checks = make(map[string]func(context.Context) error)
	}
	i.checks[name] = fn
}

func (i *infrastructure) onClose(fn func()) {
	i.closers = append(i.closers, fn)
}

// Close releases connections in reverse order of opening.
func (i *infrastructure) Close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func (i *infrastructure) draftPersister(ctx context.Context, cfg config.Config) (drafts.Persister, error) {
	switch cfg.Drafts.Store {
	case config.DraftStoreMemory:
		return store.NewInMemory(), nil

	case config.DraftStoreRedis:
		client, err := redis.New(cfg.Redis)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, fmt.Errorf("DRAFT_STORE=redis requires REDIS_URL")
		}
		i.check("redis", client.Health)
		i.onClose(func() { _ = client.Close() })
		i.redis = client
		return store.NewRedis(client.Client, cfg.Drafts.TTL), nil

	case config.DraftStorePostgres:
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if db == nil {
			return nil, fmt.Errorf("DRAFT_STORE=postgres requires DATABASE_URL")
		}
		i.check("postgres", db.Health)
		i.onClose(func() { _ = db.Close() })
		ps := store.NewPostgres(db.DB)
		if err := ps.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return ps, nil
	}
	return nil, fmt.Errorf("unknown DRAFT_STORE %q", cfg.Drafts.Store)
}

// auditStore streams to Kafka when brokers are configured and keeps an
// in-memory mirror for reads either way.
func (i *infrastructure) auditStore(ctx context.Context, cfg config.Config, log *slog.Logger) (audit.Store, error) {
	mirror := memory.NewInMemoryStore()
	client, err := kafka.New(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Info("kafka not configured, audit events stay in memory")
		return mirror, nil
	}
	i.check("kafka", client.Health)
	i.onClose(client.Close)
	if err := client.EnsureTopic(ctx, cfg.Kafka.Partitions); err != nil {
		return nil, err
	}
	return kafkastore.New(client, client.Topic(), kafkastore.WithMirror(mirror)), nil
}

// rateLimiter shares the draft store's Redis connection when there is one.
// The returned sweep drops idle in-process buckets and is a no-op for Redis.
func (i *infrastructure) rateLimiter(cfg config.Config, log *slog.Logger, m *onboardingmetrics.Metrics) (*ratelimitmw.Middleware, func()) {
	var (
		buckets ratelimitmw.BucketStore
		sweep   = func() {}
	)
	if i.redis != nil {
		buckets = bucket.NewRedisBucketStore(i.redis.Client)
	} else {
		mem := bucket.NewInMemoryBucketStore()
		buckets = mem
		sweep = func() { mem.Sweep() }
	}
	window := cfg.Limits.Window
	mw := ratelimitmw.New(buckets, log,
		ratelimitmw.WithDisabled(!cfg.Limits.Enabled),
		ratelimitmw.WithLimits(map[ratelimit.EndpointClass]ratelimit.Limit{
			ratelimit.ClassRead:      {Requests: cfg.Limits.Read, Window: window},
			ratelimit.ClassWrite:     {Requests: cfg.Limits.Write, Window: window},
			ratelimit.ClassSensitive: {Requests: cfg.Limits.Sensitive, Window: window},
		}),
		ratelimitmw.WithObserver(m),
	)
	return mw, sweep
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (i *infrastructure) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(i.checks))
	for name := range i.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := i.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
