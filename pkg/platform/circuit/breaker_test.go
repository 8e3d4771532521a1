package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replay feeds outcomes to b: 'f' records a failure and 's' a success.
func replay(b *Breaker, outcomes string) {
	for _, o := range outcomes {
		switch o {
		case 'f':
			b.RecordFailure()
		case 's':
			b.RecordSuccess()
		}
	}
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		successes int
		outcomes  string
		wantOpen  bool
	}{
		{name: "new breaker is closed", failures: 3, successes: 1, wantOpen: false},
		{name: "below failure threshold", failures: 3, successes: 1, outcomes: "ff", wantOpen: false},
		{name: "failure threshold reached", failures: 3, successes: 1, outcomes: "fff", wantOpen: true},
		{name: "success clears failure streak", failures: 3, successes: 1, outcomes: "ffsff", wantOpen: false},
		{name: "half the trial calls succeeded", failures: 1, successes: 2, outcomes: "fs", wantOpen: true},
		{name: "enough trial calls succeeded", failures: 1, successes: 2, outcomes: "fss", wantOpen: false},
		{name: "failure restarts trial count", failures: 1, successes: 3, outcomes: "fssfss", wantOpen: true},
		{name: "recovered after restarted trial calls", failures: 1, successes: 3, outcomes: "fssfsss", wantOpen: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("onboarding-api", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			replay(b, tt.outcomes)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsEdgesOnce(t *testing.T) {
	b := New("onboarding-api", WithFailureThreshold(2), WithSuccessThreshold(1))
	assert.Equal(t, "onboarding-api", b.Name())
	assert.Equal(t, StateClosed, b.State())

	fallback, change := b.RecordFailure()
	assert.False(t, fallback)
	assert.False(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened, "already open")

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
}

func TestBreakerReset(t *testing.T) {
	b := New("onboarding-api", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerAllowsOneTrialAfterCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := New("onboarding-api",
		WithFailureThreshold(1),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow(), "cooling down")

	now = now.Add(11 * time.Second)
	assert.True(t, b.Allow(), "trial call")
	assert.False(t, b.Allow(), "second trial call in the same window")

	_, change := b.RecordSuccess()
	assert.True(t, change.Closed)
	assert.True(t, b.Allow())
}
