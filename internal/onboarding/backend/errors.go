package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/sentinel"
)

// errorBody is the API's error envelope. detail is either a message or a
// list of field errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func parseError(status int, body []byte) error {
	message, fields := decodeDetail(body)
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return serverValidation(message, fields)
	case status == http.StatusConflict:
		return dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, message)
	case status == http.StatusUnauthorized:
		return dErrors.New(dErrors.CodeUnauthorized, message)
	case status == http.StatusForbidden:
		return dErrors.New(dErrors.CodeForbidden, message)
	case status == http.StatusTooManyRequests:
		return dErrors.New(dErrors.CodeTooManyRequests, message)
	case status >= 500:
		return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable,
			fmt.Sprintf("onboarding service error (%d), try again", status))
	default:
		return dErrors.New(dErrors.CodeInternal, message)
	}
}

func decodeDetail(body []byte) (string, []fieldError) {
	var env errorBody
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return strings.TrimSpace(string(body)), nil
	}
	var message string
	if err := json.Unmarshal(env.Detail, &message); err == nil {
		return message, nil
	}
	var fields []fieldError
	if err := json.Unmarshal(env.Detail, &fields); err == nil {
		return "", fields
	}
	return "", nil
}

// serverValidation keeps the server's field errors keyed by dotted location.
func serverValidation(message string, fields []fieldError) error {
	if len(fields) == 0 {
		return &dErrors.ValidationError{Message: message, Violations: []string{message}}
	}
	verr := &dErrors.ValidationError{
		Message:     "The onboarding service rejected the submission.",
		FieldErrors: make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		msg := strings.TrimPrefix(f.Msg, "Value error, ")
		loc := joinLoc(f.Loc)
		if loc != "" {
			if _, seen := verr.FieldErrors[loc]; !seen {
				verr.FieldErrors[loc] = msg
			}
		}
		verr.Violations = append(verr.Violations, msg)
	}
	return verr
}

func joinLoc(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, p := range loc {
		switch v := p.(type) {
		case string:
			if v == "body" {
				continue
			}
			parts = append(parts, v)
		case float64:
			parts = append(parts, fmt.Sprintf("%d", int(v)))
		}
	}
	return strings.Join(parts, ".")
}
