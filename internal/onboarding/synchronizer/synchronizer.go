// Package synchronizer reconciles a browser session's local wizard state with
// the onboarding service, which is always authoritative.
//
// Submissions are sequential: a busy flag admits one at a time and a second
// caller gets a conflict without touching the network. Every submission
// carries an idempotency key that is reused until the service gives a
// definitive answer, so retrying after an ambiguous failure is safe. A key
// belongs to one payload: resubmitting edited data mints a new key.
package synchronizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"aplite/internal/onboarding/backend"
	"aplite/internal/onboarding/models"
	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/sentinel"
)

// Backend is the onboarding API.
type Backend interface {
	Current(ctx context.Context) (models.Snapshot, error)
	SaveDraft(ctx context.Context, step models.StepID, data any, completed bool, idemKey string) (backend.DraftResult, error)
	Complete(ctx context.Context, in backend.CompleteRequest, doc *backend.File, idemKey string) (models.CompleteResult, error)
	UploadID(ctx context.Context, file backend.File) (models.UploadResult, error)
	UploadFormation(ctx context.Context, docType string, file backend.File) (models.UploadResult, error)
	SendOTP(ctx context.Context, method, idemKey string) error
	ConfirmOTP(ctx context.Context, code, idemKey string) (models.OTPResult, error)
	AvailableSlots(ctx context.Context) ([]time.Time, error)
	ScheduleCall(ctx context.Context, slot time.Time, idemKey string) (models.CallBooking, error)
	Reset(ctx context.Context) error
}

// ErrBusy is returned when a submission is already in flight.
var ErrBusy = dErrors.New(dErrors.CodeConflict, "a submission is already in progress")

const (
	opComplete     = "complete"
	opSendOTP      = "send_otp"
	opConfirmOTP   = "confirm_otp"
	opScheduleCall = "schedule_call"
)

type Synchronizer struct {
	backend Backend
	logger  *slog.Logger
	newKey  func() string

	busy  atomic.Bool
	group singleflight.Group

	mu   sync.Mutex
	last models.Session
	keys map[string]pendingKey
}

// pendingKey is an idempotency key still awaiting a definitive answer,
// together with the digest of the payload it was minted for.
type pendingKey struct {
	key    string
	digest string
}

type Option func(*Synchronizer)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeyGenerator overrides idempotency key generation.
func WithKeyGenerator(fn func() string) Option {
	return func(s *Synchronizer) {
		s.newKey = fn
	}
}

func New(b Backend, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		backend: b,
		logger:  slog.Default(),
		newKey:  uuid.NewString,
		last:    models.NotStarted{},
		keys:    make(map[string]pendingKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Last returns the most recent session the service reported.
func (s *Synchronizer) Last() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Busy reports whether a submission is in flight.
func (s *Synchronizer) Busy() bool {
	return s.busy.Load()
}

// FetchCurrent asks the service for the active session. No session is
// NotStarted, not an error. Concurrent callers share one request.
func (s *Synchronizer) FetchCurrent(ctx context.Context) (models.Session, error) {
	v, err, _ := s.group.Do("current", func() (any, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(models.Session), nil
}

func (s *Synchronizer) fetch(ctx context.Context) (models.Session, error) {
	snap, err := s.backend.Current(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.remember(models.NotStarted{})
			return models.NotStarted{}, nil
		}
		return nil, err
	}
	session, err := models.FromSnapshot(snap)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "unexpected onboarding session from service")
	}
	s.remember(session)
	return session, nil
}

// SubmitStep sends a validated step payload as completed and returns the
// session the service reports afterwards. On failure nothing local changes.
func (s *Synchronizer) SubmitStep(ctx context.Context, step models.StepID, payload any) (models.Session, error) {
	if !step.IsDataStep() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "only steps 1-4 are submitted individually")
	}
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	op := step.String()
	key := s.key(op, payload)
	result, err := s.backend.SaveDraft(ctx, step, payload, true, key)
	s.settle(op, err)
	if err != nil {
		s.logger.WarnContext(ctx, "step submission failed",
			"step", int(step),
			"idempotency_key", key,
			"error", err,
		)
		return nil, err
	}
	return s.refreshAfter(ctx, func(prev models.Progress) models.Session {
		prev.SessionID = result.SessionID
		prev.OrgID = result.OrgID
		prev.CurrentStep = result.CurrentStep
		prev.Statuses = result.StepStatuses
		return models.InProgress{Progress: prev}
	}), nil
}

// SaveRemoteDraft stores an unfinished step server-side so another device
// can pick it up. It never marks the step complete.
func (s *Synchronizer) SaveRemoteDraft(ctx context.Context, step models.StepID, data any) error {
	if !step.IsDataStep() {
		return dErrors.New(dErrors.CodeBadRequest, "only steps 1-4 have server drafts")
	}
	_, err := s.backend.SaveDraft(ctx, step, data, false, "")
	return err
}

// Complete sends the full snapshot. The result is either VERIFIED with an
// identifier or a PENDING_* state.
func (s *Synchronizer) Complete(ctx context.Context, in backend.CompleteRequest, doc *backend.File) (models.CompleteResult, error) {
	release, err := s.acquire()
	if err != nil {
		return models.CompleteResult{}, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	result, err := s.backend.Complete(ctx, in, doc, s.key(opComplete, completePayload{in, doc}))
	s.settle(opComplete, err)
	if err != nil {
		return models.CompleteResult{}, err
	}
	s.refreshAfter(ctx, func(prev models.Progress) models.Session {
		prev.SessionID = result.SessionID
		prev.OrgID = result.OrgID
		switch result.Status {
		case models.StateVerified:
			return models.Verified{Progress: prev, UPI: result.UPI}
		case models.StatePendingCall:
			return models.PendingCall{Progress: prev}
		default:
			return models.PendingReview{Progress: prev}
		}
	})
	return result, nil
}

func (s *Synchronizer) UploadID(ctx context.Context, file backend.File) (models.UploadResult, error) {
	return s.backend.UploadID(ctx, file)
}

func (s *Synchronizer) UploadFormation(ctx context.Context, docType string, file backend.File) (models.UploadResult, error) {
	return s.backend.UploadFormation(ctx, docType, file)
}

func (s *Synchronizer) SendOTP(ctx context.Context, method string) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	err = s.backend.SendOTP(ctx, method, s.key(opSendOTP, method))
	s.settle(opSendOTP, err)
	return err
}

// ConfirmOTP submits the code; success means the session is VERIFIED.
func (s *Synchronizer) ConfirmOTP(ctx context.Context, code string) (models.OTPResult, error) {
	release, err := s.acquire()
	if err != nil {
		return models.OTPResult{}, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	result, err := s.backend.ConfirmOTP(ctx, code, s.key(opConfirmOTP, code))
	s.settle(opConfirmOTP, err)
	if err != nil {
		return models.OTPResult{}, err
	}
	s.refreshAfter(ctx, func(prev models.Progress) models.Session {
		return models.Verified{Progress: prev, UPI: result.UPI}
	})
	return result, nil
}

func (s *Synchronizer) AvailableSlots(ctx context.Context) ([]time.Time, error) {
	return s.backend.AvailableSlots(ctx)
}

// ScheduleCall books a verification call; the session pauses in PENDING_CALL.
func (s *Synchronizer) ScheduleCall(ctx context.Context, slot time.Time) (models.CallBooking, error) {
	release, err := s.acquire()
	if err != nil {
		return models.CallBooking{}, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	booking, err := s.backend.ScheduleCall(ctx, slot, s.key(opScheduleCall, slot))
	s.settle(opScheduleCall, err)
	if err != nil {
		return models.CallBooking{}, err
	}
	s.refreshAfter(ctx, func(prev models.Progress) models.Session {
		at := booking.ScheduledAt
		return models.PendingCall{Progress: prev, ScheduledAt: &at}
	})
	return booking, nil
}

// Reset deletes the active session server-side and forgets pending keys.
func (s *Synchronizer) Reset(ctx context.Context) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := s.backend.Reset(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.last = models.NotStarted{}
	clear(s.keys)
	s.mu.Unlock()
	return nil
}

func (s *Synchronizer) acquire() (func(), error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { s.busy.Store(false) }, nil
}

type completePayload struct {
	Request  backend.CompleteRequest `json:"request"`
	Document *backend.File           `json:"document,omitempty"`
}

// key returns the pending idempotency key for op when it was minted for the
// same payload. Otherwise it mints a fresh one.
func (s *Synchronizer) key(op string, payload any) string {
	d := digest(payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.keys[op]; ok && d != "" && k.digest == d {
		return k.key
	}
	k := pendingKey{key: s.newKey(), digest: d}
	s.keys[op] = k
	return k.key
}

// digest fingerprints a payload. An unencodable payload gets no digest and
// so never shares a key.
func digest(payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// settle drops op's key once the service has answered definitively. After
// an ambiguous failure the key is kept for the retry.
func (s *Synchronizer) settle(op string, err error) {
	if err != nil && ambiguous(err) {
		return
	}
	s.mu.Lock()
	delete(s.keys, op)
	s.mu.Unlock()
}

func ambiguous(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnavailable, dErrors.CodeTimeout, dErrors.CodeInternal:
		return true
	}
	return false
}

// refreshAfter re-reads the session after a successful mutation. When the
// read fails, fallback derives the session from the mutation's own answer
// and the last known progress.
func (s *Synchronizer) refreshAfter(ctx context.Context, fallback func(models.Progress) models.Session) models.Session {
	session, err := s.fetch(ctx)
	if err == nil {
		return session
	}
	s.logger.WarnContext(ctx, "session refresh after submission failed", "error", err)
	prev, _ := models.ProgressOf(s.Last())
	if prev.RiskLevel == "" {
		prev.RiskLevel = models.RiskLow
	}
	derived := fallback(prev)
	s.remember(derived)
	return derived
}

func (s *Synchronizer) remember(session models.Session) {
	s.mu.Lock()
	s.last = session
	s.mu.Unlock()
}
