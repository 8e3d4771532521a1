package models

import (
	"time"

	id "aplite/pkg/domain"
)

// WizardState is the controller's position in the flow.
type WizardState string

const (
	WizardStep1                WizardState = "STEP_1"
	WizardStep2                WizardState = "STEP_2"
	WizardStep3                WizardState = "STEP_3"
	WizardStep4                WizardState = "STEP_4"
	WizardStep5                WizardState = "STEP_5"
	WizardStep6                WizardState = "STEP_6"
	WizardAwaitingOTP          WizardState = "AWAITING_OTP"
	WizardAwaitingCallSchedule WizardState = "AWAITING_CALL_SCHEDULE"
	WizardPendingCall          WizardState = "PENDING_CALL"
	WizardVerified             WizardState = "VERIFIED"
	WizardRejected             WizardState = "REJECTED"
)

// StepState maps a step to its screen state.
func StepState(step StepID) WizardState {
	switch step {
	case StepBusiness:
		return WizardStep1
	case StepAuthority:
		return WizardStep2
	case StepIdentity:
		return WizardStep3
	case StepBank:
		return WizardStep4
	case StepReview:
		return WizardStep5
	default:
		return WizardStep6
	}
}

// Step returns the screen step for STEP_n states and 6 for the verification
// branches.
func (s WizardState) Step() StepID {
	switch s {
	case WizardStep1:
		return StepBusiness
	case WizardStep2:
		return StepAuthority
	case WizardStep3:
		return StepIdentity
	case WizardStep4:
		return StepBank
	case WizardStep5:
		return StepReview
	default:
		return StepVerification
	}
}

// IsStep reports whether the state is one of STEP_1..STEP_6.
func (s WizardState) IsStep() bool {
	switch s {
	case WizardStep1, WizardStep2, WizardStep3, WizardStep4, WizardStep5, WizardStep6:
		return true
	}
	return false
}

// View is what a step screen renders.
type View struct {
	State            WizardState    `json:"state"`
	Step             StepID         `json:"step"`
	CurrentStep      StepID         `json:"current_step"`
	CompletedThrough StepID         `json:"completed_through"`
	SessionState     SessionState   `json:"session_state"`
	SessionID        string         `json:"session_id,omitempty"`
	AddressLocked    bool           `json:"address_locked"`
	Visited          []StepID       `json:"visited"`
	Draft            Draft          `json:"draft,omitempty"`
	UPI              string         `json:"upi,omitempty"`
	ScheduledCall    *time.Time     `json:"scheduled_call,omitempty"`
	Notice           string         `json:"notice,omitempty"`
	Steps            []StepProgress `json:"steps"`
}

type StepProgress struct {
	Step      StepID `json:"step"`
	Title     string `json:"title"`
	Complete  bool   `json:"complete"`
	Navigable bool   `json:"navigable"`
	Visited   bool   `json:"visited"`
}

// CompleteResult is the backend's answer to the final submission.
type CompleteResult struct {
	Status           SessionState `json:"status"`
	OrgID            id.OrgID     `json:"org_id"`
	SessionID        id.SessionID `json:"session_id"`
	UPI              string       `json:"upi,omitempty"`
	PaymentAccountID string       `json:"payment_account_id,omitempty"`
}

// UploadResult carries the opaque reference returned for an uploaded file.
type UploadResult struct {
	FileID  string `json:"file_id"`
	Storage string `json:"storage,omitempty"`
}

// OTPResult is returned by a successful OTP confirmation.
type OTPResult struct {
	Status SessionState `json:"status"`
	UPI    string       `json:"upi"`
}

// CallBooking is returned by schedule-call.
type CallBooking struct {
	Status      SessionState `json:"status"`
	ScheduledAt time.Time    `json:"scheduled_at"`
}
