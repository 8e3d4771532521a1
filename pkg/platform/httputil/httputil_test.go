package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "aplite/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	bankRejected := &dErrors.ValidationError{
		Message:     "bank details rejected",
		FieldErrors: map[string]string{"ach_routing": "unknown routing number"},
	}

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "internal hides description",
			err:    dErrors.New(dErrors.CodeInternal, "pq: relation onboarding_drafts does not exist"),
			status: http.StatusInternalServerError,
			body:   `{"error":"internal_error"}`,
		},
		{
			name:   "uncoded error is internal",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			body:   `{"error":"internal_error"}`,
		},
		{
			name:   "locked step",
			err:    dErrors.New(dErrors.CodeInvariantViolation, "step 3 is locked"),
			status: http.StatusConflict,
			body:   `{"error":"invariant_violation","error_description":"step 3 is locked"}`,
		},
		{
			name:   "backend down",
			err:    dErrors.Wrap(errors.New("dial tcp"), dErrors.CodeUnavailable, "onboarding service unreachable, retry"),
			status: http.StatusServiceUnavailable,
			body:   `{"error":"unavailable","error_description":"onboarding service unreachable, retry"}`,
		},
		{
			name:   "client validation",
			err:    dErrors.NewValidation("step 4 is incomplete", []string{"ACH routing number must be 9 digits."}),
			status: http.StatusUnprocessableEntity,
			body:   `{"error":"validation_error","error_description":"step 4 is incomplete","violations":["ACH routing number must be 9 digits."]}`,
		},
		{
			name:   "server field errors",
			err:    bankRejected,
			status: http.StatusUnprocessableEntity,
			body:   `{"error":"validation_error","error_description":"bank details rejected","field_errors":{"ach_routing":"unknown routing number"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Step int `json:"step"`
	}

	req := httptest.NewRequest(http.MethodPost, "/onboard/navigate", strings.NewReader(`{"step":3}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, 3, dst.Step)

	req = httptest.NewRequest(http.MethodPost, "/onboard/navigate", strings.NewReader(`{"step":`))
	err := DecodeJSON(req, &dst)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	oversized := `{"step":1,"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/onboard/navigate", strings.NewReader(oversized))
	assert.True(t, dErrors.HasCode(DecodeJSON(req, &dst), dErrors.CodeBadRequest))
}
