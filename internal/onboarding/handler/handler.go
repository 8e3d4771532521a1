// Package handler exposes the onboarding wizard as JSON step screens.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"aplite/internal/onboarding/backend"
	"aplite/internal/onboarding/models"
	"aplite/internal/onboarding/validator"
	"aplite/internal/onboarding/wizard"
	ratelimit "aplite/internal/ratelimit/models"
	id "aplite/pkg/domain"
	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/audit"
	"aplite/pkg/platform/httputil"
	authmw "aplite/pkg/platform/middleware/auth"
	"aplite/pkg/platform/middleware/device"
	request "aplite/pkg/platform/middleware/request"
	"aplite/pkg/requestcontext"
)

// multipart envelope allowance on top of the document itself
const uploadOverhead = 1 << 20

// Sessions resolves the wizard for a browser session.
type Sessions interface {
	Open(ctx context.Context, ns id.Namespace, user id.UserID, device string) *wizard.Controller
	Logout(ctx context.Context, ns id.Namespace)
}

// RateLimiter budgets authenticated requests per endpoint class.
type RateLimiter interface {
	RateLimitAuthenticated(class ratelimit.EndpointClass) func(http.Handler) http.Handler
}

// ActivityLog reads back the audit trail the wizard emits.
type ActivityLog interface {
	List(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

// Handler serves the /onboard routes.
type Handler struct {
	sessions     Sessions
	logger       *slog.Logger
	jwtValidator authmw.JWTValidator
	limiter      RateLimiter
	activity     ActivityLog
	secureCookie bool
}

type Option func(*Handler)

// WithSecureCookie marks the namespace cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(h *Handler) {
		h.secureCookie = secure
	}
}

// WithRateLimit budgets reads, writes and OTP or upload calls separately.
func WithRateLimit(l RateLimiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// WithActivity exposes GET /onboard/activity.
func WithActivity(log ActivityLog) Option {
	return func(h *Handler) {
		h.activity = log
	}
}

func New(sessions Sessions, jwtValidator authmw.JWTValidator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		sessions:     sessions,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the onboarding routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/onboard", func(r chi.Router) {
		r.Use(device.Namespace(h.secureCookie))
		r.Use(authmw.RequireAuth(h.jwtValidator, h.logger))

		r.Group(func(r chi.Router) {
			r.Use(h.limit(ratelimit.ClassRead))
			r.Get("/state", h.handleState)
			r.Get("/step-{step:[1-6]}", h.handleGetStep)
			r.Get("/call/slots", h.handleSlots)
			if h.activity != nil {
				r.Get("/activity", h.handleActivity)
			}
		})
		r.Group(func(r chi.Router) {
			r.Use(h.limit(ratelimit.ClassWrite))
			r.Patch("/step-{step:[1-6]}", h.handlePatchStep)
			r.Post("/step-{step:[1-6]}/submit", h.handleSubmitStep)
			r.Post("/navigate", h.handleNavigate)
			r.Post("/verification", h.handleVerification)
			r.Post("/call/schedule", h.handleSchedule)
			r.Post("/reset", h.handleReset)
			r.Post("/resubmit", h.handleResubmit)
			r.Post("/logout", h.handleLogout)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.limit(ratelimit.ClassSensitive))
			r.Post("/uploads/id", h.handleUploadID)
			r.Post("/uploads/formation", h.handleUploadFormation)
			r.Post("/otp/send", h.handleSendOTP)
			r.Post("/otp/confirm", h.handleConfirmOTP)
		})
	})
}

func (h *Handler) limit(class ratelimit.EndpointClass) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.limiter.RateLimitAuthenticated(class)
}

type navigateRequest struct {
	Step models.StepID `json:"step"`
}

type sendOTPRequest struct {
	Method string `json:"method"`
}

type confirmOTPRequest struct {
	Code string `json:"code"`
}

type scheduleRequest struct {
	Slot string `json:"slot"`
}

type draftResponse struct {
	Step  models.StepID `json:"step"`
	Draft models.Draft  `json:"draft"`
}

type slotsResponse struct {
	Slots []time.Time `json:"slots"`
}

type activityResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *Handler) controller(r *http.Request) *wizard.Controller {
	ctx := r.Context()
	return h.sessions.Open(ctx, requestcontext.Namespace(ctx), requestcontext.UserID(ctx), device.GetDeviceLabel(ctx))
}

// loaded returns the controller after its first load; false means a response
// was already written.
func (h *Handler) loaded(w http.ResponseWriter, r *http.Request) (*wizard.Controller, bool) {
	ctrl := h.controller(r)
	if err := ctrl.Ensure(r.Context()); err != nil {
		h.writeError(w, r, "load onboarding session", err)
		return nil, false
	}
	return ctrl, true
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	v, err := h.controller(r).Load(r.Context())
	if err != nil {
		h.writeError(w, r, "load onboarding session", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleGetStep(w http.ResponseWriter, r *http.Request) {
	step, err := stepParam(r)
	if err != nil {
		h.writeError(w, r, "read step", err)
		return
	}
	ctrl, ok := h.loaded(w, r)
	if !ok {
		return
	}
	v, err := ctrl.Screen(step)
	if err != nil {
		h.writeError(w, r, "open step", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handlePatchStep(w http.ResponseWriter, r *http.Request) {
	step, err := stepParam(r)
	if err != nil {
		h.writeError(w, r, "read step", err)
		return
	}
	var patch json.RawMessage
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		h.writeError(w, r, "decode draft patch", err)
		return
	}
	ctrl, ok := h.loaded(w, r)
	if !ok {
		return
	}
	d, err := ctrl.PatchDraft(r.Context(), step, patch)
	if err != nil {
		h.writeError(w, r, "save draft", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, draftResponse{Step: step, Draft: d})
}

func (h *Handler) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	step, err := stepParam(r)
	if err != nil {
		h.writeError(w, r, "read step", err)
		return
	}
	h.withController(w, r, "submit step", func(ctx context.Context, ctrl *wizard.Controller) (models.View, error) {
		return ctrl.Submit(ctx, step)
	})
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "decode navigate request", err)
		return
	}
	h.withController(w, r, "navigate", func(ctx context.Context, ctrl *wizard.Controller) (models.View, error) {
		return ctrl.GoTo(ctx, req.Step)
	})
}

func (h *Handler) handleVerification(w http.ResponseWriter, r *http.Request) {
	h.withController(w, r, "enter verification", func(ctx context.Context, ctrl *wizard.Controller) (models.View, error) {
		return ctrl.EnterVerification(ctx)
	})
}

func (h *Handler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "decode otp request", err)
		return
	}
	h.withController(w, r, "send otp", func(ctx context.Context, ctrl *wizard.Controller) (models.View, error) {
		return ctrl.SendOTP(ctx, req.Method)
	})
}

func (h *Handler) handleConfirmOTP(w http.ResponseWriter, r *http.Request) {
	var req confirmOTPRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "decode otp request", err)
		return
	}
	h.withController(w, r, "confirm otp", func(ctx context.Context, ctrl *wizard.Controller) (models.View, error) {
		return ctrl.ConfirmOTP(ctx, req.Code)
	})
}

func (h *Handler) handleSlots(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.loaded(w, r)
	if !ok {
		return
	}
	slots, err := ctrl.AvailableSlots(r.Context())
	if err != nil {
		h.writeError(w, r, "list call slots", err)
		return
	}
	if slots == nil {
		slots = []time.Time{}
	}
	httputil.WriteJSON(w, http.StatusOK, slotsResponse{Slots: slots})
}

// handleActivity lists the caller's audit events, optionally narrowed to
// one onboarding session with ?session=.
func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := h.activity.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(w, r, "list activity", err)
		return
	}
	session := r.URL.Query().Get("session")
	out := make([]audit.Event, 0, len(events))
	for _, e := range events {
		if session == "" || e.SessionID == session {
			out = append(out, e)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, activityResponse{Events: out})
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "decode schedule request", err)
		return
	}
	h.withController(w, r, "schedule call", func(ctx context.Context, ctrl *wizard.Controller) (models.View, error) {
		return ctrl.ScheduleCall(ctx, req.Slot)
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.withController(w, r, "reset onboarding", func(ctx context.Context, ctrl *wizard.Controller) (models.View, error) {
		return ctrl.Reset(ctx)
	})
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	h.withController(w, r, "start resubmission", func(ctx context.Context, ctrl *wizard.Controller) (models.View, error) {
		return ctrl.Resubmit(ctx)
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.sessions.Logout(ctx, requestcontext.Namespace(ctx))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUploadID(w http.ResponseWriter, r *http.Request) {
	file, _, err := readUpload(w, r)
	if err != nil {
		h.writeError(w, r, "read id upload", err)
		return
	}
	ctrl, ok := h.loaded(w, r)
	if !ok {
		return
	}
	res, err := ctrl.UploadID(r.Context(), file)
	if err != nil {
		h.writeError(w, r, "upload id", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleUploadFormation(w http.ResponseWriter, r *http.Request) {
	file, docType, err := readUpload(w, r)
	if err != nil {
		h.writeError(w, r, "read formation upload", err)
		return
	}
	if docType == "" {
		h.writeError(w, r, "read formation upload", dErrors.New(dErrors.CodeBadRequest, "doc_type is required"))
		return
	}
	ctrl, ok := h.loaded(w, r)
	if !ok {
		return
	}
	res, err := ctrl.UploadFormation(r.Context(), docType, file)
	if err != nil {
		h.writeError(w, r, "upload formation document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) withController(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, *wizard.Controller) (models.View, error)) {
	ctrl, ok := h.loaded(w, r)
	if !ok {
		return
	}
	v, err := fn(r.Context(), ctrl)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	attrs := []any{
		"op", op,
		"request_id", request.GetRequestID(ctx),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, "onboarding request failed", attrs...)
	default:
		h.logger.WarnContext(ctx, "onboarding request rejected", attrs...)
	}
	httputil.WriteError(w, err)
}

func stepParam(r *http.Request) (models.StepID, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown step")
	}
	step := models.StepID(n)
	if !step.Valid() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "unknown step")
	}
	return step, nil
}

// readUpload reads the "file" part and the optional "doc_type" field.
func readUpload(w http.ResponseWriter, r *http.Request) (backend.File, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, validator.MaxUploadBytes+uploadOverhead)
	if err := r.ParseMultipartForm(validator.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return backend.File{}, "", dErrors.NewValidation("Document was not accepted.", []string{"File too large (max 10MB)."})
		}
		return backend.File{}, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "expected a multipart upload")
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		return backend.File{}, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "file is required")
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return backend.File{}, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "upload could not be read")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return backend.File{Name: header.Filename, ContentType: contentType, Data: data}, r.FormValue("doc_type"), nil
}
