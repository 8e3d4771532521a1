package models

import (
	"fmt"
	"strconv"
	"strings"
)

// StepID numbers the wizard screens. Steps 1-4 collect data, 5 is the review
// gate and 6 is verification.
type StepID int

const (
	StepBusiness     StepID = 1
	StepAuthority    StepID = 2
	StepIdentity     StepID = 3
	StepBank         StepID = 4
	StepReview       StepID = 5
	StepVerification StepID = 6

	FirstStep = StepBusiness
	LastStep  = StepVerification
)

// DataSteps are the steps whose drafts are submitted individually.
var DataSteps = []StepID{StepBusiness, StepAuthority, StepIdentity, StepBank}

func (s StepID) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// IsDataStep reports whether the step is submitted through the draft endpoint.
func (s StepID) IsDataStep() bool {
	return s >= StepBusiness && s <= StepBank
}

func (s StepID) Title() string {
	switch s {
	case StepBusiness:
		return "Business identity"
	case StepAuthority:
		return "Authority"
	case StepIdentity:
		return "Identity"
	case StepBank:
		return "Bank rail"
	case StepReview:
		return "Review"
	case StepVerification:
		return "Verification"
	default:
		return "Unknown"
	}
}

func (s StepID) String() string {
	return "step-" + strconv.Itoa(int(s))
}

// ParseStepID accepts "3" or "step-3".
func ParseStepID(raw string) (StepID, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(raw), "step-"))
	if err != nil {
		return 0, fmt.Errorf("invalid step %q", raw)
	}
	step := StepID(n)
	if !step.Valid() {
		return 0, fmt.Errorf("step %d out of range", n)
	}
	return step, nil
}
