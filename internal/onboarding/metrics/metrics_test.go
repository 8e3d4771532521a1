package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementStepSubmission("step-1", OutcomeOK)
	m.IncrementStepSubmission("step-1", OutcomeOK)
	m.IncrementValidationFailure("step-4")
	m.DraftPersistFailed("save")
	m.IncrementVerificationBranch("call", "high")
	m.ObserveBackend("save_draft", OutcomeOK, 120*time.Millisecond)
	m.IncrementRateLimited("sensitive")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepSubmissions.WithLabelValues("step-1", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("step-4")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DraftPersistFailures.WithLabelValues("save")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationBranches.WithLabelValues("call", "high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("sensitive")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BackendLatency))
}

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementStepSubmission("step-1", OutcomeOK)
		m.DraftPersistFailed("load")
		m.ObserveBackend("current", OutcomeError, time.Second)
		m.IncrementRateLimited("write")
	})
}
