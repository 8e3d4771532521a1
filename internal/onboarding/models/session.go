package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	id "aplite/pkg/domain"
)

type SessionState string

const (
	StateNotStarted    SessionState = "NOT_STARTED"
	StateInProgress    SessionState = "IN_PROGRESS"
	StatePendingCall   SessionState = "PENDING_CALL"
	StatePendingReview SessionState = "PENDING_REVIEW"
	StateVerified      SessionState = "VERIFIED"
	StateRejected      SessionState = "REJECTED"
)

// ParseSessionState normalises the backend's state string. The backend
// reports an unsubmitted session as DRAFT.
func ParseSessionState(raw string) (SessionState, error) {
	switch s := SessionState(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StateNotStarted, StateInProgress, StatePendingCall, StatePendingReview, StateVerified, StateRejected:
		return s, nil
	case "DRAFT", "":
		return StateInProgress, nil
	default:
		return "", fmt.Errorf("unknown onboarding state %q", raw)
	}
}

func (s *SessionState) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Submitted reports whether the backend refuses further step edits.
func (s SessionState) Submitted() bool {
	return s == StatePendingCall || s == StatePendingReview || s == StateVerified
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func ParseRiskLevel(raw string) RiskLevel {
	switch r := RiskLevel(strings.ToLower(strings.TrimSpace(raw))); r {
	case RiskMedium, RiskHigh:
		return r
	default:
		return RiskLow
	}
}

func (r *RiskLevel) UnmarshalText(text []byte) error {
	*r = ParseRiskLevel(string(text))
	return nil
}

// StepStatuses is the backend's step_statuses document: accepted payloads
// under "step{n}" plus the sorted "completed_steps" list. Other keys are kept
// verbatim.
type StepStatuses struct {
	Completed []StepID
	Payloads  map[StepID]json.RawMessage
	Extra     map[string]json.RawMessage
}

func (s StepStatuses) IsComplete(step StepID) bool {
	return slices.Contains(s.Completed, step)
}

// CompletedThrough is the highest k such that steps 1..k are all complete.
func (s StepStatuses) CompletedThrough() StepID {
	var k StepID
	for step := FirstStep; step <= LastStep; step++ {
		if !s.IsComplete(step) {
			break
		}
		k = step
	}
	return k
}

func (s StepStatuses) Clone() StepStatuses {
	return StepStatuses{
		Completed: slices.Clone(s.Completed),
		Payloads:  maps.Clone(s.Payloads),
		Extra:     maps.Clone(s.Extra),
	}
}

func (s *StepStatuses) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := StepStatuses{}
	for key, value := range raw {
		if key == "completed_steps" {
			var steps []int
			if err := json.Unmarshal(value, &steps); err != nil {
				return fmt.Errorf("completed_steps: %w", err)
			}
			for _, n := range steps {
				out.Completed = append(out.Completed, StepID(n))
			}
			continue
		}
		if n, ok := strings.CutPrefix(key, "step"); ok {
			if num, err := strconv.Atoi(n); err == nil {
				if out.Payloads == nil {
					out.Payloads = make(map[StepID]json.RawMessage)
				}
				out.Payloads[StepID(num)] = value
				continue
			}
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[key] = value
	}
	slices.Sort(out.Completed)
	out.Completed = slices.Compact(out.Completed)
	*s = out
	return nil
}

func (s StepStatuses) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(s.Payloads)+len(s.Extra)+1)
	for k, v := range s.Extra {
		raw[k] = v
	}
	for step, v := range s.Payloads {
		raw["step"+strconv.Itoa(int(step))] = v
	}
	completed := make([]int, 0, len(s.Completed))
	for _, step := range s.Completed {
		completed = append(completed, int(step))
	}
	raw["completed_steps"] = completed
	return json.Marshal(raw)
}

// Snapshot is the flat wire form of an onboarding session.
type Snapshot struct {
	SessionID     id.SessionID   `json:"session_id"`
	OrgID         id.OrgID       `json:"org_id"`
	State         SessionState   `json:"state"`
	CurrentStep   StepID         `json:"current_step"`
	RiskLevel     RiskLevel      `json:"risk_level"`
	AddressLocked bool           `json:"address_locked"`
	StepStatuses  StepStatuses   `json:"step_statuses"`
	Org           map[string]any `json:"org,omitempty"`
	UPI           string         `json:"upi,omitempty"`
	ScheduledCall *time.Time     `json:"scheduled_call,omitempty"`
	Reason        string         `json:"rejection_reason,omitempty"`
}

// Session is the closed union of onboarding session states. Only types in
// this package implement it.
type Session interface {
	State() SessionState
	Snapshot() Snapshot
	isSession()
}

// Progress is the bookkeeping every started session carries.
type Progress struct {
	SessionID     id.SessionID
	OrgID         id.OrgID
	CurrentStep   StepID
	RiskLevel     RiskLevel
	AddressLocked bool
	Statuses      StepStatuses
	Org           map[string]any
}

func (p Progress) snapshot(state SessionState) Snapshot {
	return Snapshot{
		SessionID:     p.SessionID,
		OrgID:         p.OrgID,
		State:         state,
		CurrentStep:   p.CurrentStep,
		RiskLevel:     p.RiskLevel,
		AddressLocked: p.AddressLocked,
		StepStatuses:  p.Statuses.Clone(),
		Org:           maps.Clone(p.Org),
	}
}

type NotStarted struct{}

type InProgress struct{ Progress }

type PendingCall struct {
	Progress
	ScheduledAt *time.Time
}

type PendingReview struct{ Progress }

type Verified struct {
	Progress
	UPI string
}

type Rejected struct {
	Progress
	Reason string
}

func (NotStarted) State() SessionState    { return StateNotStarted }
func (InProgress) State() SessionState    { return StateInProgress }
func (PendingCall) State() SessionState   { return StatePendingCall }
func (PendingReview) State() SessionState { return StatePendingReview }
func (Verified) State() SessionState      { return StateVerified }
func (Rejected) State() SessionState      { return StateRejected }

func (NotStarted) Snapshot() Snapshot {
	return Snapshot{State: StateNotStarted, CurrentStep: FirstStep, RiskLevel: RiskLow}
}
func (s InProgress) Snapshot() Snapshot    { return s.snapshot(StateInProgress) }
func (s PendingReview) Snapshot() Snapshot { return s.snapshot(StatePendingReview) }

func (s PendingCall) Snapshot() Snapshot {
	out := s.snapshot(StatePendingCall)
	out.ScheduledCall = s.ScheduledAt
	return out
}

func (s Verified) Snapshot() Snapshot {
	out := s.snapshot(StateVerified)
	out.UPI = s.UPI
	return out
}

func (s Rejected) Snapshot() Snapshot {
	out := s.snapshot(StateRejected)
	out.Reason = s.Reason
	return out
}

func (NotStarted) isSession()    {}
func (InProgress) isSession()    {}
func (PendingCall) isSession()   {}
func (PendingReview) isSession() {}
func (Verified) isSession()      {}
func (Rejected) isSession()      {}

// ProgressOf returns the progress of a started session.
func ProgressOf(s Session) (Progress, bool) {
	switch v := s.(type) {
	case InProgress:
		return v.Progress, true
	case PendingCall:
		return v.Progress, true
	case PendingReview:
		return v.Progress, true
	case Verified:
		return v.Progress, true
	case Rejected:
		return v.Progress, true
	}
	return Progress{}, false
}

// FromSnapshot builds the typed session for a wire snapshot. A started
// session must carry a session id.
func FromSnapshot(s Snapshot) (Session, error) {
	if s.State == StateNotStarted {
		return NotStarted{}, nil
	}
	if s.SessionID.IsNil() {
		return nil, fmt.Errorf("onboarding session in state %s has no session_id", s.State)
	}
	current := s.CurrentStep
	if current < FirstStep {
		current = FirstStep
	}
	if current > LastStep {
		current = LastStep
	}
	p := Progress{
		SessionID:     s.SessionID,
		OrgID:         s.OrgID,
		CurrentStep:   current,
		RiskLevel:     ParseRiskLevel(string(s.RiskLevel)),
		AddressLocked: s.AddressLocked,
		Statuses:      s.StepStatuses.Clone(),
		Org:           maps.Clone(s.Org),
	}
	switch s.State {
	case StateInProgress:
		return InProgress{p}, nil
	case StatePendingCall:
		return PendingCall{Progress: p, ScheduledAt: s.ScheduledCall}, nil
	case StatePendingReview:
		return PendingReview{p}, nil
	case StateVerified:
		upi := s.UPI
		if upi == "" {
			if v, ok := s.Org["upi"].(string); ok {
				upi = v
			}
		}
		return Verified{Progress: p, UPI: upi}, nil
	case StateRejected:
		return Rejected{Progress: p, Reason: s.Reason}, nil
	}
	return nil, fmt.Errorf("unknown onboarding state %q", s.State)
}
