package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the onboarding wizard.
type Metrics struct {
	// Step submissions by step and outcome
	StepSubmissions *prometheus.CounterVec

	// Submissions stopped by the client-side validator, never sent upstream
	ValidationFailures *prometheus.CounterVec

	// Onboarding API latency by operation and outcome
	BackendLatency *prometheus.HistogramVec

	// Draft persistence failures by operation
	DraftPersistFailures *prometheus.CounterVec

	// Terminal verification branch taken
	VerificationBranches *prometheus.CounterVec

	// Requests refused by the rate limiter by endpoint class
	RateLimited *prometheus.CounterVec
}

// Outcomes used as the "outcome" label.
const (
	OutcomeOK            = "ok"
	OutcomeClientInvalid = "client_invalid"
	OutcomeServerInvalid = "server_invalid"
	OutcomeConflict      = "conflict"
	OutcomeUnavailable   = "unavailable"
	OutcomeError         = "error"
)

// New registers the onboarding metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StepSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aplite_onboarding_step_submissions_total",
			Help: "Wizard step submissions by step and outcome",
		}, []string{"step", "outcome"}),

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aplite_onboarding_validation_failures_total",
			Help: "Step submissions rejected by the client-side validator",
		}, []string{"step"}),

		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aplite_onboarding_backend_duration_seconds",
			Help:    "Duration of onboarding API calls by operation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),

		DraftPersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aplite_onboarding_draft_persist_failures_total",
			Help: "Best-effort draft persistence failures by operation",
		}, []string{"op"}), // op: "load", "save", "delete"

		VerificationBranches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aplite_onboarding_verification_branches_total",
			Help: "Terminal verification branch selected at step 6",
		}, []string{"branch", "risk_level"}),

		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aplite_onboarding_rate_limited_total",
			Help: "Requests refused by the rate limiter",
		}, []string{"class"}),
	}
}

func (m *Metrics) IncrementStepSubmission(step, outcome string) {
	if m != nil {
		m.StepSubmissions.WithLabelValues(step, outcome).Inc()
	}
}

func (m *Metrics) IncrementValidationFailure(step string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(step).Inc()
	}
}

// ObserveBackend records one onboarding API call.
func (m *Metrics) ObserveBackend(operation, outcome string, d time.Duration) {
	if m != nil {
		m.BackendLatency.WithLabelValues(operation, outcome).Observe(d.Seconds())
	}
}

// DraftPersistFailed satisfies drafts.Observer.
func (m *Metrics) DraftPersistFailed(op string) {
	if m != nil {
		m.DraftPersistFailures.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncrementVerificationBranch(branch, riskLevel string) {
	if m != nil {
		m.VerificationBranches.WithLabelValues(branch, riskLevel).Inc()
	}
}

// IncrementRateLimited satisfies the rate limit middleware's Observer.
func (m *Metrics) IncrementRateLimited(class string) {
	if m != nil {
		m.RateLimited.WithLabelValues(class).Inc()
	}
}
