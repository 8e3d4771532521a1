// Package wizard drives the six-step onboarding flow for one browser session.
//
// The Controller owns the wizard state machine. It reads drafts from a
// drafts.Store, checks them with the validator and sends them through the
// synchronizer. The server session is authoritative: every transition that
// depends on progress is derived from the last session the synchronizer
// reported, never from local bookkeeping alone.
package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"aplite/internal/onboarding/backend"
	"aplite/internal/onboarding/drafts"
	"aplite/internal/onboarding/metrics"
	"aplite/internal/onboarding/models"
	"aplite/internal/onboarding/validator"
	id "aplite/pkg/domain"
	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/audit"
	"aplite/pkg/requestcontext"
)

const (
	noticeOffline  = "We could not reach the onboarding service. You can keep editing; nothing has been submitted."
	noticeStale    = "Your saved drafts belonged to an earlier onboarding session and were cleared."
	noticeResubmit = "Your previous submission was not approved. Review your details and submit again."

	branchOTP  = "otp"
	branchCall = "call"
)

var (
	ErrStepLocked    = dErrors.New(dErrors.CodeInvariantViolation, "Complete the earlier steps before opening this one.")
	ErrSubmitted     = dErrors.New(dErrors.CodeConflict, "Onboarding has already been submitted.")
	ErrRejected      = dErrors.New(dErrors.CodeConflict, "Start a resubmission before editing your details.")
	ErrAddressLocked = dErrors.New(dErrors.CodeForbidden, "The business address can no longer be changed.")
	ErrLocalFile     = dErrors.New(dErrors.CodeBadRequest, "Upload the ID document instead of selecting a file.")
)

// Synchronizer is the server-facing half of the wizard.
type Synchronizer interface {
	FetchCurrent(ctx context.Context) (models.Session, error)
	SubmitStep(ctx context.Context, step models.StepID, payload any) (models.Session, error)
	SaveRemoteDraft(ctx context.Context, step models.StepID, data any) error
	Complete(ctx context.Context, in backend.CompleteRequest, doc *backend.File) (models.CompleteResult, error)
	UploadID(ctx context.Context, file backend.File) (models.UploadResult, error)
	UploadFormation(ctx context.Context, docType string, file backend.File) (models.UploadResult, error)
	SendOTP(ctx context.Context, method string) error
	ConfirmOTP(ctx context.Context, code string) (models.OTPResult, error)
	AvailableSlots(ctx context.Context) ([]time.Time, error)
	ScheduleCall(ctx context.Context, slot time.Time) (models.CallBooking, error)
	Reset(ctx context.Context) error
	Last() models.Session
}

// AuditPublisher receives wizard audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Controller is the state machine for one namespace. All methods are safe for
// concurrent use; network calls never run under the state lock.
type Controller struct {
	drafts       *drafts.Store
	sync         Synchronizer
	validator    *validator.Validator
	audit        AuditPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	readFile     func(string) ([]byte, error)
	remoteDrafts bool
	userID       id.UserID

	mu      sync.Mutex
	loaded  bool
	state   models.WizardState
	session models.Session
	slots   []time.Time
	notice  string
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func WithAudit(p AuditPublisher) Option {
	return func(c *Controller) {
		c.audit = p
	}
}

// WithFileReader lets drafts reference local files by path. Only a terminal
// front end running on the user's machine may set it; without it selections
// are refused.
func WithFileReader(fn func(string) ([]byte, error)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.readFile = fn
		}
	}
}

// WithRemoteDrafts mirrors draft edits to the onboarding service once a
// session exists.
func WithRemoteDrafts(enabled bool) Option {
	return func(c *Controller) {
		c.remoteDrafts = enabled
	}
}

// WithUser attributes audit events to userID when the request carries none.
func WithUser(userID id.UserID) Option {
	return func(c *Controller) {
		c.userID = userID
	}
}

func New(store *drafts.Store, s Synchronizer, v *validator.Validator, opts ...Option) *Controller {
	c := &Controller{
		drafts:    store,
		sync:      s,
		validator: v,
		logger:    slog.Default(),
		state:     models.WizardStep1,
		session:   models.NotStarted{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Drafts exposes the store behind the controller.
func (c *Controller) Drafts() *drafts.Store {
	return c.drafts
}

func (c *Controller) State() models.WizardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) View() models.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Ensure loads the session once.
func (c *Controller) Ensure(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}
	_, err := c.Load(ctx)
	return err
}

// Load derives the wizard state from the server session. When the service
// cannot be reached and no session is known yet, the wizard starts at step 1
// with a notice.
func (c *Controller) Load(ctx context.Context) (models.View, error) {
	session, err := c.sync.FetchCurrent(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = ""
	c.loaded = true
	if err != nil {
		c.logger.WarnContext(ctx, "onboarding session unavailable", "error", err)
		c.notice = noticeOffline
		return c.viewLocked(), nil
	}
	c.applyLocked(ctx, session)
	if c.state.IsStep() {
		c.drafts.TouchStep(ctx, c.state.Step())
	}
	return c.viewLocked(), nil
}

// Screen returns the view of step without moving the wizard.
func (c *Controller) Screen(step models.StepID) (models.View, error) {
	if !step.Valid() {
		return models.View{}, dErrors.New(dErrors.CodeBadRequest, "unknown step")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canGoToLocked(step) {
		return models.View{}, ErrStepLocked
	}
	v := c.viewLocked()
	v.Step = step
	v.Draft = c.drafts.GetStep(step)
	return v, nil
}

// GoTo moves to step. Steps already completed and the next open step are
// reachable; anything further is rejected without contacting the service.
// Moving backwards never changes step statuses.
func (c *Controller) GoTo(ctx context.Context, step models.StepID) (models.View, error) {
	if !step.Valid() {
		return models.View{}, dErrors.New(dErrors.CodeBadRequest, "unknown step")
	}
	c.mu.Lock()
	if !c.canGoToLocked(step) {
		c.mu.Unlock()
		return models.View{}, ErrStepLocked
	}
	if step == models.StepVerification {
		c.mu.Unlock()
		return c.EnterVerification(ctx)
	}
	defer c.mu.Unlock()
	c.state = models.StepState(step)
	c.notice = ""
	c.drafts.TouchStep(ctx, step)
	return c.viewLocked(), nil
}

// PatchDraft merges patch into the step's local draft.
func (c *Controller) PatchDraft(ctx context.Context, step models.StepID, patch json.RawMessage) (models.Draft, error) {
	if !step.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown step")
	}
	c.mu.Lock()
	p, started := models.ProgressOf(c.session)
	submitted := c.session.State().Submitted() || c.session.State() == models.StateRejected
	c.mu.Unlock()

	if step == models.StepBusiness && p.AddressLocked && hasField(patch, "address") {
		return nil, ErrAddressLocked
	}
	if step == models.StepIdentity && c.readFile == nil && hasField(patch, "selected_file") {
		return nil, ErrLocalFile
	}
	d, err := c.drafts.SetStep(ctx, step, patch)
	if err != nil {
		return nil, err
	}
	if c.remoteDrafts && started && !submitted && step.IsDataStep() {
		if err := c.sync.SaveRemoteDraft(ctx, step, d); err != nil {
			c.logger.WarnContext(ctx, "remote draft save failed", "step", step.String(), "error", err)
		}
	}
	return d, nil
}

// Submit validates and sends one step. Local violations are returned as a
// validation error and nothing reaches the network. Submitting step 5 is the
// final submission; submitting step 6 enters verification.
func (c *Controller) Submit(ctx context.Context, step models.StepID) (models.View, error) {
	if !step.Valid() {
		return models.View{}, dErrors.New(dErrors.CodeBadRequest, "unknown step")
	}
	if step == models.StepVerification {
		return c.EnterVerification(ctx)
	}

	c.mu.Lock()
	err := c.checkEditableLocked(step)
	c.mu.Unlock()
	if err != nil {
		return models.View{}, err
	}

	snapshot := c.drafts.Snapshot()
	if violations := c.validator.Validate(step, snapshot); len(violations) > 0 {
		c.metrics.IncrementValidationFailure(step.String())
		c.metrics.IncrementStepSubmission(step.String(), metrics.OutcomeClientInvalid)
		return models.View{}, dErrors.NewValidation(fmt.Sprintf("%s has errors.", step.Title()), violations)
	}
	if step == models.StepReview {
		return c.complete(ctx, snapshot)
	}
	if step == models.StepIdentity {
		if snapshot, err = c.uploadSelectedID(ctx, snapshot); err != nil {
			c.recordFailure(ctx, step, err)
			return models.View{}, err
		}
	}

	normalized := validator.Normalize(snapshot)
	session, err := c.sync.SubmitStep(ctx, step, normalized.Get(step))
	if err != nil {
		c.recordFailure(ctx, step, err)
		return models.View{}, err
	}
	c.metrics.IncrementStepSubmission(step.String(), metrics.OutcomeOK)
	c.emit(ctx, audit.EventStepSubmitted, step, "accepted", "")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = ""
	c.applyLocked(ctx, session)
	if next := step + 1; c.state.IsStep() && c.canGoToLocked(next) {
		c.state = models.StepState(next)
	}
	if c.state.IsStep() {
		c.drafts.TouchStep(ctx, c.state.Step())
	}
	return c.viewLocked(), nil
}

func (c *Controller) complete(ctx context.Context, snapshot models.Drafts) (models.View, error) {
	n := validator.Normalize(snapshot)
	var doc *backend.File
	if n.Identity.IDDocumentID == "" && n.Identity.SelectedFile != nil {
		f, err := c.loadSelection(*n.Identity.SelectedFile)
		if err != nil {
			c.recordFailure(ctx, models.StepReview, err)
			return models.View{}, err
		}
		doc = &f
	}
	identity := n.Identity
	identity.SelectedFile = nil

	req := backend.CompleteRequest{
		Org:                n.Business,
		Role:               n.Authority,
		Identity:           identity,
		Bank:               n.Bank,
		VerificationMethod: n.Review.VerificationMethod,
		IDDocumentID:       identity.IDDocumentID,
	}
	result, err := c.sync.Complete(ctx, req, doc)
	if err != nil {
		c.recordFailure(ctx, models.StepReview, err)
		return models.View{}, err
	}
	c.metrics.IncrementStepSubmission(models.StepReview.String(), metrics.OutcomeOK)
	c.emit(ctx, audit.EventOnboardingComplete, models.StepReview, string(result.Status), "")

	if result.Status == models.StateVerified {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.verifiedLocked(ctx, result.UPI)
		return c.viewLocked(), nil
	}

	c.mu.Lock()
	c.session = c.sync.Last()
	c.state = models.WizardStep6
	c.mu.Unlock()
	return c.EnterVerification(ctx)
}

// EnterVerification fetches the session and branches on its risk level. The
// risk level is read fresh on every entry.
func (c *Controller) EnterVerification(ctx context.Context) (models.View, error) {
	c.mu.Lock()
	allowed := c.canGoToLocked(models.StepVerification)
	c.mu.Unlock()
	if !allowed {
		return models.View{}, ErrStepLocked
	}

	session, err := c.sync.FetchCurrent(ctx)
	if err != nil {
		return models.View{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = ""
	c.applyLocked(ctx, session)
	switch session.(type) {
	case models.NotStarted, models.InProgress:
		return c.viewLocked(), dErrors.New(dErrors.CodeInvariantViolation, "Submit the review step before verification.")
	}

	var branch string
	switch c.state {
	case models.WizardAwaitingOTP:
		branch = branchOTP
	case models.WizardAwaitingCallSchedule:
		branch = branchCall
	}
	if branch != "" {
		p, _ := models.ProgressOf(session)
		c.metrics.IncrementVerificationBranch(branch, string(p.RiskLevel))
		c.emit(ctx, audit.EventVerificationBranch, models.StepVerification, branch, string(p.RiskLevel))
		c.drafts.TouchStep(ctx, models.StepVerification)
	}
	return c.viewLocked(), nil
}

// SendOTP requests a one-time code on the low-risk branch.
func (c *Controller) SendOTP(ctx context.Context, method string) (models.View, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if err := c.requireState(models.WizardAwaitingOTP); err != nil {
		return models.View{}, err
	}
	if v := validator.ValidateOTPMethod(method); len(v) > 0 {
		return models.View{}, dErrors.NewValidation("Verification code could not be sent.", v)
	}
	if err := c.sync.SendOTP(ctx, method); err != nil {
		return models.View{}, err
	}
	ver := c.drafts.Snapshot().Verification
	ver.OTPMethod = method
	c.drafts.Put(ctx, ver)
	c.emit(ctx, audit.EventOTPSent, models.StepVerification, method, "")
	return c.View(), nil
}

// ConfirmOTP checks a code. Success verifies the session and clears every
// draft.
func (c *Controller) ConfirmOTP(ctx context.Context, code string) (models.View, error) {
	code = strings.TrimSpace(code)
	if err := c.requireState(models.WizardAwaitingOTP); err != nil {
		return models.View{}, err
	}
	if v := validator.ValidateOTPCode(code); len(v) > 0 {
		return models.View{}, dErrors.NewValidation("Verification code is invalid.", v)
	}
	res, err := c.sync.ConfirmOTP(ctx, code)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
			c.emit(ctx, audit.EventOTPFailed, models.StepVerification, "rejected", err.Error())
		}
		return models.View{}, err
	}
	c.emit(ctx, audit.EventOTPConfirmed, models.StepVerification, string(models.StateVerified), "")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifiedLocked(ctx, res.UPI)
	return c.viewLocked(), nil
}

// AvailableSlots lists call slots on the high-risk branch.
func (c *Controller) AvailableSlots(ctx context.Context) ([]time.Time, error) {
	if err := c.requireState(models.WizardAwaitingCallSchedule); err != nil {
		return nil, err
	}
	slots, err := c.sync.AvailableSlots(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.slots = slots
	c.mu.Unlock()
	return slots, nil
}

// ScheduleCall books one of the offered slots.
func (c *Controller) ScheduleCall(ctx context.Context, slot string) (models.View, error) {
	if err := c.requireState(models.WizardAwaitingCallSchedule); err != nil {
		return models.View{}, err
	}
	c.mu.Lock()
	offered := c.slots
	c.mu.Unlock()
	if len(offered) == 0 {
		var err error
		if offered, err = c.AvailableSlots(ctx); err != nil {
			return models.View{}, err
		}
	}
	if v := validator.ValidateSlot(slot, offered); len(v) > 0 {
		return models.View{}, dErrors.NewValidation("Call could not be scheduled.", v)
	}
	at, _ := time.Parse(time.RFC3339, strings.TrimSpace(slot))

	booking, err := c.sync.ScheduleCall(ctx, at)
	if err != nil {
		return models.View{}, err
	}
	ver := c.drafts.Snapshot().Verification
	ver.Slot = booking.ScheduledAt.UTC().Format(time.RFC3339)
	c.drafts.Put(ctx, ver)
	c.emit(ctx, audit.EventCallScheduled, models.StepVerification, ver.Slot, "")

	c.mu.Lock()
	defer c.mu.Unlock()
	session := c.sync.Last()
	if pc, ok := session.(models.PendingCall); !ok || pc.ScheduledAt == nil {
		p, _ := models.ProgressOf(c.session)
		scheduled := booking.ScheduledAt
		session = models.PendingCall{Progress: p, ScheduledAt: &scheduled}
	}
	c.session = session
	c.state = models.WizardPendingCall
	c.slots = nil
	return c.viewLocked(), nil
}

// Resubmit starts over after a rejection. Drafts are kept so they can seed the
// new session.
func (c *Controller) Resubmit(ctx context.Context) (models.View, error) {
	if err := c.requireState(models.WizardRejected); err != nil {
		return models.View{}, err
	}
	if err := c.sync.Reset(ctx); err != nil {
		return models.View{}, err
	}
	c.drafts.UnbindSession(ctx)
	c.emit(ctx, audit.EventResubmission, models.StepBusiness, "", "")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(ctx)
	c.notice = noticeResubmit
	return c.viewLocked(), nil
}

// Reset discards the server session and every local draft.
func (c *Controller) Reset(ctx context.Context) (models.View, error) {
	if err := c.sync.Reset(ctx); err != nil {
		return models.View{}, err
	}
	c.drafts.ClearAll(ctx)
	c.emit(ctx, audit.EventOnboardingReset, models.StepBusiness, "", "")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(ctx)
	return c.viewLocked(), nil
}

// UploadID sends an identity document and records its reference in the step 3
// draft.
func (c *Controller) UploadID(ctx context.Context, file backend.File) (models.UploadResult, error) {
	c.mu.Lock()
	err := c.checkEditableLocked(models.StepIdentity)
	c.mu.Unlock()
	if err != nil {
		return models.UploadResult{}, err
	}
	if v := validator.ValidateUpload(file.ContentType, int64(len(file.Data))); len(v) > 0 {
		return models.UploadResult{}, dErrors.NewValidation("ID document was not accepted.", v)
	}
	res, err := c.sync.UploadID(ctx, file)
	if err != nil {
		return models.UploadResult{}, err
	}
	ident := c.drafts.Snapshot().Identity
	ident.IDDocumentID = res.FileID
	ident.SelectedFile = nil
	c.drafts.Put(ctx, ident)
	return res, nil
}

// UploadFormation sends a formation document and attaches it to the step 1
// draft, replacing an earlier document of the same type.
func (c *Controller) UploadFormation(ctx context.Context, docType string, file backend.File) (models.UploadResult, error) {
	c.mu.Lock()
	err := c.checkEditableLocked(models.StepBusiness)
	c.mu.Unlock()
	if err != nil {
		return models.UploadResult{}, err
	}
	business := c.drafts.Snapshot().Business
	violations := validator.ValidateUpload(file.ContentType, int64(len(file.Data)))
	if allowed, _ := validator.FormationDocTypes(business.EntityType); !slices.Contains(allowed, docType) {
		violations = append(violations, "Document type is not accepted for this entity type.")
	}
	if len(violations) > 0 {
		return models.UploadResult{}, dErrors.NewValidation("Formation document was not accepted.", violations)
	}

	res, err := c.sync.UploadFormation(ctx, docType, file)
	if err != nil {
		return models.UploadResult{}, err
	}
	business = c.drafts.Snapshot().Business
	docs := make([]models.FormationDocument, 0, len(business.FormationDocuments)+1)
	for _, d := range business.FormationDocuments {
		if d.DocType != docType {
			docs = append(docs, d)
		}
	}
	business.FormationDocuments = append(docs, models.FormationDocument{DocType: docType, FileID: res.FileID})
	c.drafts.Put(ctx, business)
	return res, nil
}

func (c *Controller) uploadSelectedID(ctx context.Context, snapshot models.Drafts) (models.Drafts, error) {
	ident := snapshot.Identity
	if ident.IDDocumentID != "" || ident.SelectedFile == nil {
		return snapshot, nil
	}
	file, err := c.loadSelection(*ident.SelectedFile)
	if err != nil {
		return snapshot, err
	}
	res, err := c.sync.UploadID(ctx, file)
	if err != nil {
		return snapshot, err
	}
	ident.IDDocumentID = res.FileID
	ident.SelectedFile = nil
	c.drafts.Put(ctx, ident)
	snapshot.Identity = ident
	return snapshot, nil
}

func (c *Controller) loadSelection(sel models.FileSelection) (backend.File, error) {
	if c.readFile == nil {
		return backend.File{}, ErrLocalFile
	}
	if sel.Path == "" {
		return backend.File{}, dErrors.New(dErrors.CodeBadRequest, "Select the ID document again.")
	}
	data, err := c.readFile(sel.Path)
	if err != nil {
		return backend.File{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "The selected ID document could not be read.")
	}
	if v := validator.ValidateUpload(sel.ContentType, int64(len(data))); len(v) > 0 {
		return backend.File{}, dErrors.NewValidation("ID document was not accepted.", v)
	}
	name := sel.Name
	if name == "" {
		name = filepath.Base(sel.Path)
	}
	return backend.File{Name: name, ContentType: sel.ContentType, Data: data}, nil
}

func (c *Controller) requireState(want models.WizardState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != want {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("This action is not available while onboarding is %s.", c.state))
	}
	return nil
}

// checkEditableLocked must be called with mu held.
func (c *Controller) checkEditableLocked(step models.StepID) error {
	switch c.session.(type) {
	case models.PendingCall, models.PendingReview, models.Verified:
		return ErrSubmitted
	case models.Rejected:
		return ErrRejected
	}
	if !c.canGoToLocked(step) {
		return ErrStepLocked
	}
	return nil
}

// applyLocked must be called with mu held.
func (c *Controller) applyLocked(ctx context.Context, session models.Session) {
	c.session = session
	c.state = deriveState(session)
	switch session.(type) {
	case models.NotStarted:
		c.drafts.UnbindSession(ctx)
	case models.Verified:
		c.drafts.ClearAll(ctx)
	default:
		p, _ := models.ProgressOf(session)
		if c.drafts.BindSession(ctx, p.SessionID) {
			c.notice = noticeStale
		}
	}
}

func (c *Controller) verifiedLocked(ctx context.Context, upi string) {
	session := c.sync.Last()
	if v, ok := session.(models.Verified); ok {
		if v.UPI == "" {
			v.UPI = upi
		}
		session = v
	} else {
		p, _ := models.ProgressOf(c.session)
		session = models.Verified{Progress: p, UPI: upi}
	}
	c.session = session
	c.state = models.WizardVerified
	c.slots = nil
	c.drafts.ClearAll(ctx)
}

func (c *Controller) resetLocked(ctx context.Context) {
	c.session = models.NotStarted{}
	c.state = models.WizardStep1
	c.slots = nil
	c.notice = ""
	c.drafts.TouchStep(ctx, models.StepBusiness)
}

func (c *Controller) progressLocked() models.Progress {
	if p, ok := models.ProgressOf(c.session); ok {
		return p
	}
	return models.Progress{CurrentStep: models.FirstStep, RiskLevel: models.RiskLow}
}

func (c *Controller) canGoToLocked(step models.StepID) bool {
	if !step.Valid() {
		return false
	}
	p := c.progressLocked()
	if step == models.StepVerification {
		state := c.session.State()
		return state.Submitted() || state == models.StateRejected
	}
	return step <= p.Statuses.CompletedThrough() || step == navigable(p)
}

func (c *Controller) stepCompleteLocked(step models.StepID, p models.Progress) bool {
	state := c.session.State()
	switch {
	case step.IsDataStep():
		return p.Statuses.IsComplete(step)
	case step == models.StepReview:
		return state.Submitted() || state == models.StateRejected
	default:
		return state == models.StateVerified
	}
}

func (c *Controller) viewLocked() models.View {
	p := c.progressLocked()
	step := c.state.Step()
	v := models.View{
		State:            c.state,
		Step:             step,
		CurrentStep:      navigable(p),
		CompletedThrough: p.Statuses.CompletedThrough(),
		SessionState:     c.session.State(),
		AddressLocked:    p.AddressLocked,
		Visited:          c.drafts.VisitedSteps(),
		Notice:           c.notice,
	}
	if v.Visited == nil {
		v.Visited = []models.StepID{}
	}
	if !p.SessionID.IsNil() {
		v.SessionID = p.SessionID.String()
	}
	if c.state != models.WizardVerified {
		v.Draft = c.drafts.GetStep(step)
	}
	switch s := c.session.(type) {
	case models.Verified:
		v.UPI = s.UPI
	case models.PendingCall:
		v.ScheduledCall = s.ScheduledAt
	}
	for k := models.FirstStep; k <= models.LastStep; k++ {
		v.Steps = append(v.Steps, models.StepProgress{
			Step:      k,
			Title:     k.Title(),
			Complete:  c.stepCompleteLocked(k, p),
			Navigable: c.canGoToLocked(k),
			Visited:   c.drafts.Visited(k),
		})
	}
	return v
}

func (c *Controller) recordFailure(ctx context.Context, step models.StepID, err error) {
	outcome := metrics.OutcomeError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		outcome = metrics.OutcomeServerInvalid
	case dErrors.CodeConflict:
		outcome = metrics.OutcomeConflict
	case dErrors.CodeUnavailable, dErrors.CodeTimeout:
		outcome = metrics.OutcomeUnavailable
	}
	c.metrics.IncrementStepSubmission(step.String(), outcome)
	if outcome == metrics.OutcomeServerInvalid || outcome == metrics.OutcomeConflict {
		c.emit(ctx, audit.EventStepRejected, step, outcome, err.Error())
	}
	c.logger.WarnContext(ctx, "step submission failed",
		"step", step.String(),
		"outcome", outcome,
		"error", err,
	)
}

func (c *Controller) emit(ctx context.Context, action audit.AuditEvent, step models.StepID, decision, reason string) {
	if c.audit == nil {
		return
	}
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		userID = c.userID
	}
	event := audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Action:    string(action),
		Step:      int(step),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if sid := c.drafts.SessionID(); !sid.IsNil() {
		event.SessionID = sid.String()
	}
	if err := c.audit.Emit(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

// deriveState maps a server session to the screen the wizard shows.
func deriveState(session models.Session) models.WizardState {
	switch s := session.(type) {
	case models.InProgress:
		return models.StepState(navigable(s.Progress))
	case models.PendingReview:
		return verificationBranch(s.Progress)
	case models.PendingCall:
		if s.ScheduledAt == nil {
			return verificationBranch(s.Progress)
		}
		return models.WizardPendingCall
	case models.Verified:
		return models.WizardVerified
	case models.Rejected:
		return models.WizardRejected
	}
	return models.WizardStep1
}

// verificationBranch picks how a session awaiting verification is confirmed:
// a call for high risk, a one-time code otherwise.
func verificationBranch(p models.Progress) models.WizardState {
	if p.RiskLevel == models.RiskHigh {
		return models.WizardAwaitingCallSchedule
	}
	return models.WizardAwaitingOTP
}

// navigable is the furthest step the user may open: the server's current step,
// but never past the first incomplete one.
func navigable(p models.Progress) models.StepID {
	next := p.Statuses.CompletedThrough() + 1
	current := p.CurrentStep
	if current < models.FirstStep {
		current = models.FirstStep
	}
	return min(current, next, models.StepReview)
}

func hasField(patch json.RawMessage, name string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return false
	}
	_, ok := fields[name]
	return ok
}
