package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "aplite/pkg/domain"
)

const currentBody = `{
	"session_id": "6f1c2a8e-6a4f-4c55-9a35-2f0e4c1d9b10",
	"org_id": "0b4c9a5e-1d2f-4e3a-8b7c-6d5e4f3a2b1c",
	"state": "DRAFT",
	"current_step": 3,
	"risk_level": "HIGH",
	"address_locked": true,
	"step_statuses": {
		"step1": {"legal_name": "Acme LLC"},
		"step2": {"role": "owner"},
		"role": {"role": "owner", "title": null},
		"completed_steps": [2, 1]
	},
	"org": {"legal_name": "Acme LLC"}
}`

func TestSnapshot_DecodesBackendDocument(t *testing.T) {
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(currentBody), &snap))

	assert.Equal(t, StateInProgress, snap.State)
	assert.Equal(t, RiskHigh, snap.RiskLevel)
	assert.Equal(t, StepIdentity, snap.CurrentStep)
	assert.Equal(t, []StepID{1, 2}, snap.StepStatuses.Completed)
	assert.Contains(t, snap.StepStatuses.Payloads, StepBusiness)
	assert.Contains(t, snap.StepStatuses.Extra, "role")
	assert.Equal(t, "6f1c2a8e-6a4f-4c55-9a35-2f0e4c1d9b10", snap.SessionID.String())
}

func TestSnapshot_RejectsUnknownState(t *testing.T) {
	var snap Snapshot
	err := json.Unmarshal([]byte(`{"state":"ARCHIVED"}`), &snap)
	assert.Error(t, err)
}

func TestStepStatuses_RoundTrip(t *testing.T) {
	in := StepStatuses{
		Completed: []StepID{1},
		Payloads:  map[StepID]json.RawMessage{1: json.RawMessage(`{"ein":"12-3456789"}`)},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out StepStatuses
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.Completed, out.Completed)
	assert.JSONEq(t, `{"ein":"12-3456789"}`, string(out.Payloads[1]))
}

func TestStepStatuses_CompletedThrough(t *testing.T) {
	tests := []struct {
		name      string
		completed []StepID
		want      StepID
	}{
		{"none", nil, 0},
		{"prefix", []StepID{1, 2}, 2},
		{"gap stops the prefix", []StepID{1, 3, 4}, 1},
		{"missing first", []StepID{2, 3}, 0},
		{"all data steps", []StepID{1, 2, 3, 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StepStatuses{Completed: tt.completed}.CompletedThrough())
		})
	}
}

func TestFromSnapshot(t *testing.T) {
	sessionID := id.SessionID(uuid.New())

	t.Run("not started", func(t *testing.T) {
		s, err := FromSnapshot(Snapshot{State: StateNotStarted})
		require.NoError(t, err)
		assert.IsType(t, NotStarted{}, s)
		assert.Equal(t, FirstStep, s.Snapshot().CurrentStep)
	})

	t.Run("started session needs an id", func(t *testing.T) {
		_, err := FromSnapshot(Snapshot{State: StateInProgress})
		assert.Error(t, err)
	})

	t.Run("verified falls back to org upi", func(t *testing.T) {
		s, err := FromSnapshot(Snapshot{
			SessionID: sessionID,
			State:     StateVerified,
			Org:       map[string]any{"upi": "UPI-7Q2M"},
		})
		require.NoError(t, err)
		v, ok := s.(Verified)
		require.True(t, ok)
		assert.Equal(t, "UPI-7Q2M", v.UPI)
	})

	t.Run("current step is clamped", func(t *testing.T) {
		s, err := FromSnapshot(Snapshot{SessionID: sessionID, State: StateInProgress, CurrentStep: 9})
		require.NoError(t, err)
		p, ok := ProgressOf(s)
		require.True(t, ok)
		assert.Equal(t, LastStep, p.CurrentStep)
	})

	t.Run("snapshot does not alias statuses", func(t *testing.T) {
		snap := Snapshot{
			SessionID:    sessionID,
			State:        StateInProgress,
			CurrentStep:  2,
			StepStatuses: StepStatuses{Completed: []StepID{1}},
		}
		s, err := FromSnapshot(snap)
		require.NoError(t, err)
		snap.StepStatuses.Completed[0] = 4
		p, _ := ProgressOf(s)
		assert.Equal(t, []StepID{1}, p.Statuses.Completed)
	})
}

func TestParseStepID(t *testing.T) {
	step, err := ParseStepID("step-4")
	require.NoError(t, err)
	assert.Equal(t, StepBank, step)

	_, err = ParseStepID("7")
	assert.Error(t, err)
	_, err = ParseStepID("x")
	assert.Error(t, err)
}

func TestDrafts_CloneDoesNotAlias(t *testing.T) {
	d := Drafts{}
	d.Business.FormationDocuments = []FormationDocument{{DocType: "articles_of_organization", FileID: "form_1"}}
	d.Identity.SelectedFile = &FileSelection{Name: "passport.png"}

	c := d.Clone()
	c.Business.FormationDocuments[0].FileID = "changed"
	c.Identity.SelectedFile.Name = "changed"

	assert.Equal(t, "form_1", d.Business.FormationDocuments[0].FileID)
	assert.Equal(t, "passport.png", d.Identity.SelectedFile.Name)
}
