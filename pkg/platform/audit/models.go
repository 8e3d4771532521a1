package audit

import (
	"context"
	"time"

	id "aplite/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: the
	// submission of KYB data and the outcome of verification.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to fraud monitoring, such as the
	// high-risk call branch or repeated OTP failures.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine wizard activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by the wizard to capture key actions. Keep it transport
// agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    id.UserID     `json:"user_id"`
	SessionID string        `json:"session_id,omitempty"`
	Action    string        `json:"action"`
	Step      int           `json:"step,omitempty"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventStepSubmitted      AuditEvent = "onboarding_step_submitted"
	EventStepRejected       AuditEvent = "onboarding_step_rejected"
	EventOnboardingComplete AuditEvent = "onboarding_completed"
	EventVerificationBranch AuditEvent = "onboarding_verification_branch"
	EventOTPSent            AuditEvent = "onboarding_otp_sent"
	EventOTPConfirmed       AuditEvent = "onboarding_otp_confirmed"
	EventOTPFailed          AuditEvent = "onboarding_otp_failed"
	EventCallScheduled      AuditEvent = "onboarding_call_scheduled"
	EventOnboardingReset    AuditEvent = "onboarding_reset"
	EventResubmission       AuditEvent = "onboarding_resubmission_started"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventStepSubmitted:      CategoryCompliance,
	EventOnboardingComplete: CategoryCompliance,
	EventOTPConfirmed:       CategoryCompliance,
	EventCallScheduled:      CategoryCompliance,
	EventOnboardingReset:    CategoryCompliance,

	EventVerificationBranch: CategorySecurity,
	EventOTPFailed:          CategorySecurity,

	EventStepRejected: CategoryOperations,
	EventOTPSent:      CategoryOperations,
	EventResubmission: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
