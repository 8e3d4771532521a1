package models

import "time"

// EndpointClass groups routes that share a request budget.
type EndpointClass string

const (
	// ClassRead: screen and state reads
	ClassRead EndpointClass = "read"
	// ClassWrite: draft edits, navigation and step submission
	ClassWrite EndpointClass = "write"
	// ClassSensitive: OTP delivery and confirmation, document uploads
	ClassSensitive EndpointClass = "sensitive"
)

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassRead, ClassWrite, ClassSensitive:
		return true
	}
	return false
}

// Limit is a request budget over a sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits are per user per minute.
func DefaultLimits() map[EndpointClass]Limit {
	return map[EndpointClass]Limit{
		ClassRead:      {Requests: 120, Window: time.Minute},
		ClassWrite:     {Requests: 60, Window: time.Minute},
		ClassSensitive: {Requests: 10, Window: time.Minute},
	}
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RetryAfterSeconds rounds the wait until resetAt up to whole seconds, at
// least one.
func RetryAfterSeconds(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
