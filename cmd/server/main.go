package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	jwttoken "aplite/internal/jwt_token"
	"aplite/internal/onboarding/backend"
	"aplite/internal/onboarding/drafts"
	"aplite/internal/onboarding/handler"
	onboardingmetrics "aplite/internal/onboarding/metrics"
	"aplite/internal/onboarding/synchronizer"
	"aplite/internal/onboarding/validator"
	"aplite/internal/onboarding/wizard"
	"aplite/internal/platform/config"
	"aplite/internal/platform/httpserver"
	"aplite/internal/platform/logger"
	"aplite/internal/platform/metrics"
	"aplite/pkg/platform/audit/publisher"
	"aplite/pkg/platform/circuit"
	"aplite/pkg/platform/middleware/metadata"
	request "aplite/pkg/platform/middleware/request"
	"aplite/pkg/platform/middleware/requesttime"
)

// main wires the BFF: draft persistence, the audit trail, the onboarding API
// client and the step screen routes.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	httpMetrics := metrics.New(reg)
	onboarding := onboardingmetrics.New(reg)

	infra := &infrastructure{}
	defer infra.Close()

	persister, err := infra.draftPersister(ctx, cfg)
	if err != nil {
		return err
	}
	auditStore, err := infra.auditStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	audit := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(256), publisher.WithLogger(log))
	defer audit.Close()

	breaker := circuit.New("onboarding-api",
		circuit.WithFailureThreshold(cfg.Backend.BreakerThreshold),
		circuit.WithCooldown(cfg.Backend.BreakerCooldown),
	)
	client := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		backend.WithRetry(backend.RetryConfig{
			MaxAttempts: cfg.Backend.MaxAttempts,
			BaseDelay:   cfg.Backend.BaseDelay,
			MaxDelay:    cfg.Backend.MaxDelay,
		}),
		backend.WithBreaker(breaker),
		backend.WithObserver(onboarding),
		backend.WithLogger(log),
	)
	infra.check("onboarding_api", func(context.Context) error {
		if breaker.IsOpen() {
			return fmt.Errorf("circuit %s is open", breaker.Name())
		}
		return nil
	})

	draftRegistry := drafts.NewRegistry(persister,
		drafts.WithIdleTimeout(cfg.Drafts.IdleTimeout),
		drafts.WithStoreOptions(drafts.WithLogger(log), drafts.WithObserver(onboarding)),
	)
	sessions := wizard.NewRegistry(draftRegistry,
		func() wizard.Synchronizer {
			return synchronizer.New(client, synchronizer.WithLogger(log))
		},
		validator.New(),
		wizard.WithIdleTimeout(cfg.Drafts.IdleTimeout),
		wizard.WithControllerOptions(
			wizard.WithLogger(log),
			wizard.WithMetrics(onboarding),
			wizard.WithAudit(audit),
			wizard.WithRemoteDrafts(cfg.Drafts.RemoteSave),
		),
	)

	limiter, sweepBuckets := infra.rateLimiter(cfg, log, onboarding)

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log, httpMetrics))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Get("/healthz", infra.healthHandler)
	r.Handle("/metrics", httpMetrics.Handler())
	handler.New(sessions, jwttoken.NewJWTServiceAdapter(jwtService), log,
		handler.WithSecureCookie(cfg.Server.SecureCookies),
		handler.WithRateLimit(limiter),
		handler.WithActivity(audit),
	).Register(r)

	go sweep(ctx, sessions, sweepBuckets, cfg.Drafts.IdleTimeout, log)

	srv := httpserver.New(cfg.Server.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting aplite onboarding BFF",
			"addr", cfg.Server.Addr,
			"draft_store", cfg.Drafts.Store,
			"backend", cfg.Backend.BaseURL,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// sweep evicts idle wizard sessions and rate limit buckets until ctx is done.
func sweep(ctx context.Context, sessions *wizard.Registry, buckets func(), idle time.Duration, log *slog.Logger) {
	interval := idle / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := sessions.Sweep(); len(evicted) > 0 {
				log.Debug("evicted idle wizard sessions", "count", len(evicted))
			}
			buckets()
		}
	}
}
