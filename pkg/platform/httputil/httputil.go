// Package httputil writes JSON responses and coded error bodies for handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "aplite/pkg/domain-errors"
)

// maxBodyBytes bounds JSON request bodies; uploads use their own limit.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Violations       []string          `json:"violations,omitempty"`
	FieldErrors      map[string]string `json:"field_errors,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and error body. Internal errors never leak
// their description.
func WriteError(w http.ResponseWriter, err error) {
	if verr, ok := dErrors.AsValidation(err); ok && dErrors.CodeOf(err) == dErrors.CodeValidation {
		WriteJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:            string(dErrors.CodeValidation),
			ErrorDescription: verr.Message,
			Violations:       verr.Violations,
			FieldErrors:      verr.FieldErrors,
		})
		return
	}

	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			body.ErrorDescription = coded.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// DecodeJSON reads a bounded JSON body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
