package synchronizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aplite/internal/onboarding/backend"
	"aplite/internal/onboarding/models"
	"aplite/internal/onboarding/synchronizer/mocks"
	id "aplite/pkg/domain"
	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/sentinel"
)

//go:generate mockgen -source=synchronizer.go -destination=mocks/mocks.go -package=mocks Backend

type SynchronizerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	backend *mocks.MockBackend
	sync    *Synchronizer
	keys    int
}

func TestSynchronizerSuite(t *testing.T) {
	suite.Run(t, new(SynchronizerSuite))
}

var (
	sessionID = id.SessionID(uuid.MustParse("6f1c2a3b-4d5e-4f60-8172-93a4b5c6d7e8"))
	orgID     = id.OrgID(uuid.MustParse("0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"))
)

func (s *SynchronizerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.backend = mocks.NewMockBackend(s.ctrl)
	s.keys = 0
	s.sync = New(s.backend,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithKeyGenerator(func() string {
			s.keys++
			return fmt.Sprintf("key-%d", s.keys)
		}),
	)
}

func snapshot(state models.SessionState, current models.StepID, completed ...models.StepID) models.Snapshot {
	return models.Snapshot{
		SessionID:     sessionID,
		OrgID:         orgID,
		State:         state,
		CurrentStep:   current,
		RiskLevel:     models.RiskLow,
		AddressLocked: len(completed) > 0,
		StepStatuses:  models.StepStatuses{Completed: completed},
	}
}

func unavailable() error {
	return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable, "could not reach the onboarding service, try again")
}

func (s *SynchronizerSuite) TestFetchCurrentWithoutSessionIsNotStarted() {
	s.backend.EXPECT().Current(gomock.Any()).
		Return(models.Snapshot{}, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "No active onboarding session."))

	session, err := s.sync.FetchCurrent(context.Background())
	s.Require().NoError(err)
	s.Equal(models.NotStarted{}, session)
}

func (s *SynchronizerSuite) TestFetchCurrentIsIdempotent() {
	s.backend.EXPECT().Current(gomock.Any()).
		Return(snapshot(models.StateInProgress, models.StepBank, 1, 2, 3), nil).Times(2)

	first, err := s.sync.FetchCurrent(context.Background())
	s.Require().NoError(err)
	second, err := s.sync.FetchCurrent(context.Background())
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(first.Snapshot(), second.Snapshot())
	s.Equal(first, s.sync.Last())
}

func (s *SynchronizerSuite) TestFetchCurrentPropagatesNetworkFailure() {
	s.backend.EXPECT().Current(gomock.Any()).Return(models.Snapshot{}, unavailable())

	_, err := s.sync.FetchCurrent(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *SynchronizerSuite) TestSubmitStepReturnsServerSession() {
	payload := models.BusinessDraft{LegalName: "Acme"}
	gomock.InOrder(
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepBusiness, payload, true, "key-1").
			Return(backend.DraftResult{SessionID: sessionID, OrgID: orgID, CurrentStep: 2}, nil),
		s.backend.EXPECT().Current(gomock.Any()).
			Return(snapshot(models.StateInProgress, models.StepAuthority, 1), nil),
	)

	session, err := s.sync.SubmitStep(context.Background(), models.StepBusiness, payload)
	s.Require().NoError(err)
	progress, ok := models.ProgressOf(session)
	s.Require().True(ok)
	s.Equal(models.StepAuthority, progress.CurrentStep)
	s.True(progress.AddressLocked)
	s.False(s.sync.Busy())
}

func (s *SynchronizerSuite) TestAmbiguousFailureReusesKey() {
	gomock.InOrder(
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepAuthority, gomock.Any(), true, "key-1").
			Return(backend.DraftResult{}, unavailable()),
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepAuthority, gomock.Any(), true, "key-1").
			Return(backend.DraftResult{SessionID: sessionID, OrgID: orgID, CurrentStep: 3}, nil),
		s.backend.EXPECT().Current(gomock.Any()).
			Return(snapshot(models.StateInProgress, models.StepIdentity, 1, 2), nil),
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepIdentity, gomock.Any(), true, "key-2").
			Return(backend.DraftResult{SessionID: sessionID, OrgID: orgID, CurrentStep: 4}, nil),
		s.backend.EXPECT().Current(gomock.Any()).
			Return(snapshot(models.StateInProgress, models.StepBank, 1, 2, 3), nil),
	)
	ctx := context.Background()

	_, err := s.sync.SubmitStep(ctx, models.StepAuthority, models.AuthorityDraft{Role: models.RoleOwner})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = s.sync.SubmitStep(ctx, models.StepAuthority, models.AuthorityDraft{Role: models.RoleOwner})
	s.Require().NoError(err)
	_, err = s.sync.SubmitStep(ctx, models.StepIdentity, models.IdentityDraft{FullName: "Jordan Lee"})
	s.Require().NoError(err)
}

func (s *SynchronizerSuite) TestEditedPayloadGetsNewKey() {
	owner := models.AuthorityDraft{Role: models.RoleOwner}
	rep := models.AuthorityDraft{Role: models.RoleAuthorizedRep, Title: "CFO"}
	gomock.InOrder(
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepAuthority, owner, true, "key-1").
			Return(backend.DraftResult{}, unavailable()),
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepAuthority, rep, true, "key-2").
			Return(backend.DraftResult{}, unavailable()),
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepAuthority, rep, true, "key-2").
			Return(backend.DraftResult{SessionID: sessionID, OrgID: orgID, CurrentStep: 3}, nil),
		s.backend.EXPECT().Current(gomock.Any()).
			Return(snapshot(models.StateInProgress, models.StepIdentity, 1, 2), nil),
	)
	ctx := context.Background()

	_, err := s.sync.SubmitStep(ctx, models.StepAuthority, owner)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = s.sync.SubmitStep(ctx, models.StepAuthority, rep)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = s.sync.SubmitStep(ctx, models.StepAuthority, rep)
	s.Require().NoError(err)
}

func (s *SynchronizerSuite) TestEditedSlotGetsNewKey() {
	first := time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	gomock.InOrder(
		s.backend.EXPECT().ScheduleCall(gomock.Any(), first, "key-1").Return(models.CallBooking{}, unavailable()),
		s.backend.EXPECT().ScheduleCall(gomock.Any(), second, "key-2").Return(models.CallBooking{}, unavailable()),
	)

	_, err := s.sync.ScheduleCall(context.Background(), first)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	_, err = s.sync.ScheduleCall(context.Background(), second)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *SynchronizerSuite) TestServerValidationDropsKey() {
	verr := &dErrors.ValidationError{Message: "rejected", FieldErrors: map[string]string{"ein": "duplicate"}}
	gomock.InOrder(
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepBusiness, gomock.Any(), true, "key-1").
			Return(backend.DraftResult{}, verr),
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepBusiness, gomock.Any(), true, "key-2").
			Return(backend.DraftResult{}, verr),
	)

	_, err := s.sync.SubmitStep(context.Background(), models.StepBusiness, models.BusinessDraft{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = s.sync.SubmitStep(context.Background(), models.StepBusiness, models.BusinessDraft{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal(models.NotStarted{}, s.sync.Last(), "failed submissions leave local state alone")
}

func (s *SynchronizerSuite) TestSecondSubmissionWhileBusyIsRejected() {
	entered := make(chan struct{})
	release := make(chan struct{})
	s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepBank, gomock.Any(), true, gomock.Any()).
		DoAndReturn(func(context.Context, models.StepID, any, bool, string) (backend.DraftResult, error) {
			close(entered)
			<-release
			return backend.DraftResult{SessionID: sessionID, OrgID: orgID, CurrentStep: 5}, nil
		})
	s.backend.EXPECT().Current(gomock.Any()).Return(snapshot(models.StateInProgress, models.StepReview, 1, 2, 3, 4), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.sync.SubmitStep(context.Background(), models.StepBank, models.BankDraft{})
		s.NoError(err)
	}()
	<-entered

	s.True(s.sync.Busy())
	_, err := s.sync.SubmitStep(context.Background(), models.StepBank, models.BankDraft{})
	s.ErrorIs(err, ErrBusy)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	close(release)
	wg.Wait()
	s.False(s.sync.Busy())
}

func (s *SynchronizerSuite) TestRefreshFailureFallsBackToSubmissionResult() {
	gomock.InOrder(
		s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepBusiness, gomock.Any(), true, "key-1").
			Return(backend.DraftResult{
				SessionID:    sessionID,
				OrgID:        orgID,
				CurrentStep:  2,
				StepStatuses: models.StepStatuses{Completed: []models.StepID{1}},
			}, nil),
		s.backend.EXPECT().Current(gomock.Any()).Return(models.Snapshot{}, unavailable()),
	)

	session, err := s.sync.SubmitStep(context.Background(), models.StepBusiness, models.BusinessDraft{})
	s.Require().NoError(err)
	s.Equal(models.StateInProgress, session.State())
	progress, _ := models.ProgressOf(session)
	s.Equal(models.StepAuthority, progress.CurrentStep)
	s.Equal(models.StepBusiness, progress.Statuses.CompletedThrough())
	s.Equal(models.RiskLow, progress.RiskLevel)
}

func (s *SynchronizerSuite) TestSubmitStepRejectsNonDataSteps() {
	_, err := s.sync.SubmitStep(context.Background(), models.StepReview, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *SynchronizerSuite) TestCompletePending() {
	gomock.InOrder(
		s.backend.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Nil(), "key-1").
			Return(models.CompleteResult{Status: models.StatePendingReview, SessionID: sessionID, OrgID: orgID}, nil),
		s.backend.EXPECT().Current(gomock.Any()).
			Return(snapshot(models.StatePendingReview, models.StepVerification, 1, 2, 3, 4), nil),
	)

	result, err := s.sync.Complete(context.Background(), backend.CompleteRequest{}, nil)
	s.Require().NoError(err)
	s.Equal(models.StatePendingReview, result.Status)
	s.IsType(models.PendingReview{}, s.sync.Last())
}

func (s *SynchronizerSuite) TestConfirmOTPVerifies() {
	verified := snapshot(models.StateVerified, models.StepVerification, 1, 2, 3, 4)
	verified.UPI = "UPI-ACME-01"
	gomock.InOrder(
		s.backend.EXPECT().ConfirmOTP(gomock.Any(), "123456", "key-1").
			Return(models.OTPResult{Status: models.StateVerified, UPI: "UPI-ACME-01"}, nil),
		s.backend.EXPECT().Current(gomock.Any()).Return(verified, nil),
	)

	result, err := s.sync.ConfirmOTP(context.Background(), "123456")
	s.Require().NoError(err)
	s.Equal("UPI-ACME-01", result.UPI)
	s.Equal(models.Verified{Progress: mustProgress(s.sync.Last()), UPI: "UPI-ACME-01"}, s.sync.Last())
}

func (s *SynchronizerSuite) TestScheduleCallFallsBackToPendingCall() {
	slot := time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC)
	gomock.InOrder(
		s.backend.EXPECT().ScheduleCall(gomock.Any(), slot, "key-1").
			Return(models.CallBooking{Status: models.StatePendingCall, ScheduledAt: slot}, nil),
		s.backend.EXPECT().Current(gomock.Any()).Return(models.Snapshot{}, unavailable()),
	)

	booking, err := s.sync.ScheduleCall(context.Background(), slot)
	s.Require().NoError(err)
	s.True(slot.Equal(booking.ScheduledAt))
	pending, ok := s.sync.Last().(models.PendingCall)
	s.Require().True(ok)
	s.True(slot.Equal(*pending.ScheduledAt))
}

func (s *SynchronizerSuite) TestResetForgetsSession() {
	gomock.InOrder(
		s.backend.EXPECT().Current(gomock.Any()).Return(snapshot(models.StateRejected, models.StepReview, 1, 2, 3, 4), nil),
		s.backend.EXPECT().Reset(gomock.Any()).Return(nil),
	)
	_, err := s.sync.FetchCurrent(context.Background())
	s.Require().NoError(err)

	s.Require().NoError(s.sync.Reset(context.Background()))
	s.Equal(models.NotStarted{}, s.sync.Last())
}

func (s *SynchronizerSuite) TestSaveRemoteDraftIsNeverCompleted() {
	s.backend.EXPECT().SaveDraft(gomock.Any(), models.StepBank, gomock.Any(), false, "").
		Return(backend.DraftResult{}, nil)

	s.NoError(s.sync.SaveRemoteDraft(context.Background(), models.StepBank, map[string]any{"bank_name": "First"}))
	s.True(dErrors.HasCode(s.sync.SaveRemoteDraft(context.Background(), models.StepReview, nil), dErrors.CodeBadRequest))
}

func mustProgress(session models.Session) models.Progress {
	p, _ := models.ProgressOf(session)
	return p
}
