package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"aplite/internal/onboarding/models"
	id "aplite/pkg/domain"
	dErrors "aplite/pkg/domain-errors"
)

// DraftResult is the answer to a step save.
type DraftResult struct {
	SessionID    id.SessionID        `json:"session_id"`
	OrgID        id.OrgID            `json:"org_id"`
	CurrentStep  models.StepID       `json:"current_step"`
	StepStatuses models.StepStatuses `json:"step_statuses"`
}

// CompleteRequest bundles every step for the final submission.
type CompleteRequest struct {
	Org                models.BusinessDraft  `json:"org"`
	Role               models.AuthorityDraft `json:"role"`
	Identity           models.IdentityDraft  `json:"identity"`
	Bank               models.BankDraft      `json:"bank"`
	VerificationMethod string                `json:"verification_method,omitempty"`
	IDDocumentID       string                `json:"id_document_id,omitempty"`
}

// File is an in-memory upload. Bytes are buffered so a retried request can
// resend them.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Current returns the caller's active session. A missing session is a
// not_found error wrapping sentinel.ErrNotFound.
func (c *Client) Current(ctx context.Context) (models.Snapshot, error) {
	req := request{op: "current", method: http.MethodGet, path: "/onboarding/current", retryable: true}
	var snap models.Snapshot
	if err := c.do(ctx, req, &snap); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// SaveDraft stores one step's data. completed=true asks the service to mark
// the step accepted and advance the session.
func (c *Client) SaveDraft(ctx context.Context, step models.StepID, data any, completed bool, idemKey string) (DraftResult, error) {
	payload := struct {
		Step      models.StepID `json:"step"`
		Data      any           `json:"data"`
		Completed bool          `json:"completed"`
	}{step, data, completed}
	req, err := jsonRequest("save_draft", http.MethodPost, "/onboarding/draft", payload)
	if err != nil {
		return DraftResult{}, err
	}
	req.idemKey = idemKey
	req.retryable = idemKey != ""
	req.attrs = []attribute.KeyValue{
		attribute.Int("onboarding.step", int(step)),
		attribute.Bool("onboarding.completed", completed),
	}
	var out DraftResult
	if err := c.do(ctx, req, &out); err != nil {
		return DraftResult{}, err
	}
	return out, nil
}

// Complete sends the full snapshot as multipart form data, with the ID
// document attached when one is given.
func (c *Client) Complete(ctx context.Context, in CompleteRequest, doc *File, idemKey string) (models.CompleteResult, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return models.CompleteResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode complete request")
	}
	body, contentType, err := multipartBody([][2]string{{"data", string(data)}}, doc)
	if err != nil {
		return models.CompleteResult{}, err
	}
	req := request{
		op: "complete", method: http.MethodPost, path: "/onboarding/complete",
		body: body, contentType: contentType,
		idemKey: idemKey, retryable: idemKey != "",
	}
	var out models.CompleteResult
	if err := c.do(ctx, req, &out); err != nil {
		return models.CompleteResult{}, err
	}
	return out, nil
}

// UploadID uploads a government ID document.
func (c *Client) UploadID(ctx context.Context, file File) (models.UploadResult, error) {
	return c.upload(ctx, "upload_id", "/onboarding/upload-id", nil, file)
}

// UploadFormation uploads a formation document of docType.
func (c *Client) UploadFormation(ctx context.Context, docType string, file File) (models.UploadResult, error) {
	return c.upload(ctx, "upload_formation", "/onboarding/upload-formation", [][2]string{{"doc_type", docType}}, file)
}

func (c *Client) upload(ctx context.Context, op, path string, fields [][2]string, file File) (models.UploadResult, error) {
	body, contentType, err := multipartBody(fields, &file)
	if err != nil {
		return models.UploadResult{}, err
	}
	req := request{op: op, method: http.MethodPost, path: path, body: body, contentType: contentType}
	var out models.UploadResult
	if err := c.do(ctx, req, &out); err != nil {
		return models.UploadResult{}, err
	}
	return out, nil
}

// SendOTP asks the service to deliver a one-time code by method.
func (c *Client) SendOTP(ctx context.Context, method, idemKey string) error {
	req, err := jsonRequest("send_otp", http.MethodPost, "/onboarding/send-otp", map[string]string{"method": method})
	if err != nil {
		return err
	}
	req.idemKey = idemKey
	req.retryable = idemKey != ""
	return c.do(ctx, req, nil)
}

// ConfirmOTP submits the code and returns the issued identifier.
func (c *Client) ConfirmOTP(ctx context.Context, code, idemKey string) (models.OTPResult, error) {
	req, err := jsonRequest("confirm_otp", http.MethodPost, "/onboarding/confirm-otp", map[string]string{"code": code})
	if err != nil {
		return models.OTPResult{}, err
	}
	req.idemKey = idemKey
	req.retryable = idemKey != ""
	var out models.OTPResult
	if err := c.do(ctx, req, &out); err != nil {
		return models.OTPResult{}, err
	}
	return out, nil
}

// AvailableSlots lists bookable verification call times.
func (c *Client) AvailableSlots(ctx context.Context) ([]time.Time, error) {
	req := request{op: "available_slots", method: http.MethodGet, path: "/onboarding/available-slots", retryable: true}
	var out struct {
		Slots []time.Time `json:"slots"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

// ScheduleCall books slot and moves the session to PENDING_CALL.
func (c *Client) ScheduleCall(ctx context.Context, slot time.Time, idemKey string) (models.CallBooking, error) {
	req, err := jsonRequest("schedule_call", http.MethodPost, "/onboarding/schedule-call",
		map[string]string{"slot": slot.UTC().Format(time.RFC3339)})
	if err != nil {
		return models.CallBooking{}, err
	}
	req.idemKey = idemKey
	req.retryable = idemKey != ""
	var out models.CallBooking
	if err := c.do(ctx, req, &out); err != nil {
		return models.CallBooking{}, err
	}
	if out.ScheduledAt.IsZero() {
		out.ScheduledAt = slot
	}
	return out, nil
}

// Reset deletes the caller's unverified session.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, request{op: "reset", method: http.MethodPost, path: "/onboarding/reset", retryable: true}, nil)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(fields [][2]string, file *File) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "encode form field")
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "encode upload")
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "encode upload")
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "encode form")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
