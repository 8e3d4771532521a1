// Package drafts holds per-step form state for one browser session.
//
// The in-memory copy is authoritative. Every mutation is written through to a
// Persister on a best-effort basis: a failed write is logged and counted but
// never surfaces to the caller.
package drafts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"aplite/internal/onboarding/models"
	id "aplite/pkg/domain"
	dErrors "aplite/pkg/domain-errors"
	"aplite/pkg/platform/sentinel"
)

type Store struct {
	mu        sync.RWMutex
	rec       Record
	persistMu sync.Mutex

	ns        id.Namespace
	persister Persister
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithDevice labels the namespace with the browser it was created from.
func WithDevice(label string) Option {
	return func(s *Store) {
		s.rec.Device = label
	}
}

// WithOwner binds the store to the user whose drafts it holds. Restore
// discards persisted drafts written for anyone else.
func WithOwner(user id.UserID) Option {
	return func(s *Store) {
		s.rec.Owner = user
	}
}

// NewStore builds an empty store. A nil persister keeps drafts in memory only.
func NewStore(ns id.Namespace, persister Persister, opts ...Option) *Store {
	s := &Store{
		ns:        ns,
		persister: persister,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads previously persisted drafts. Missing or unreadable state
// leaves the store empty, and so do drafts persisted for another owner.
func (s *Store) Restore(ctx context.Context) {
	if s.persister == nil {
		return
	}
	rec, err := s.persister.Load(ctx, s.ns)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.failed(ctx, "load", err)
		}
		return
	}

	s.mu.Lock()
	owner, device := s.rec.Owner, s.rec.Device
	if !owner.IsNil() && rec.Owner != owner {
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "discarding drafts persisted for another user",
			"namespace", s.ns.String(),
		)
		s.ClearAll(ctx)
		return
	}
	s.rec = rec.Clone()
	s.rec.Owner = owner
	if s.rec.Device == "" {
		s.rec.Device = device
	}
	s.mu.Unlock()
}

func (s *Store) Namespace() id.Namespace {
	return s.ns
}

// GetStep returns the draft for step, or its zero value when nothing has
// been entered. It returns nil only for a step outside 1..6.
func (s *Store) GetStep(step models.StepID) models.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	drafts := s.rec.Drafts.Clone()
	return drafts.Get(step)
}

// Snapshot returns a copy of every step's draft.
func (s *Store) Snapshot() models.Drafts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Drafts.Clone()
}

// SetStep merges a JSON object into the step's draft. Keys absent from the
// patch keep their value; nested objects merge field by field.
func (s *Store) SetStep(ctx context.Context, step models.StepID, patch json.RawMessage) (models.Draft, error) {
	if !step.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown step")
	}
	trimmed := bytes.TrimSpace(patch)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, dErrors.New(dErrors.CodeBadRequest, "draft patch must be a JSON object")
	}

	s.mu.Lock()
	next := s.rec.Drafts.Clone()
	if err := json.Unmarshal(trimmed, next.Target(step)); err != nil {
		s.mu.Unlock()
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "draft patch does not match the step's fields")
	}
	s.rec.Drafts = next
	draft := next.Get(step)
	s.stamp()
	s.mu.Unlock()

	s.persist(ctx)
	return draft, nil
}

// Put replaces a step's draft wholesale.
func (s *Store) Put(ctx context.Context, draft models.Draft) {
	s.mu.Lock()
	switch d := draft.(type) {
	case models.BusinessDraft:
		s.rec.Drafts.Business = d
	case models.AuthorityDraft:
		s.rec.Drafts.Authority = d
	case models.IdentityDraft:
		s.rec.Drafts.Identity = d
	case models.BankDraft:
		s.rec.Drafts.Bank = d
	case models.ReviewDraft:
		s.rec.Drafts.Review = d
	case models.VerificationDraft:
		s.rec.Drafts.Verification = d
	default:
		s.mu.Unlock()
		return
	}
	s.stamp()
	s.mu.Unlock()
	s.persist(ctx)
}

// ClearAll forgets every draft, the visited set and the bound session id.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.rec = s.rec.blank()
	s.mu.Unlock()

	if s.persister == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.persister.Delete(ctx, s.ns); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.failed(ctx, "delete", err)
	}
}

// TouchStep records that the user has seen step.
func (s *Store) TouchStep(ctx context.Context, step models.StepID) {
	if !step.Valid() {
		return
	}
	s.mu.Lock()
	if slices.Contains(s.rec.Visited, step) {
		s.mu.Unlock()
		return
	}
	s.rec.Visited = append(s.rec.Visited, step)
	slices.Sort(s.rec.Visited)
	s.stamp()
	s.mu.Unlock()
	s.persist(ctx)
}

func (s *Store) Visited(step models.StepID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.rec.Visited, step)
}

func (s *Store) VisitedSteps() []models.StepID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rec.Visited)
}

func (s *Store) SessionID() id.SessionID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.SessionID
}

func (s *Store) Owner() id.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Owner
}

func (s *Store) Device() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Device
}

// BindSession ties the drafts to a server session. Drafts written for a
// different session are discarded first; the return value reports that.
func (s *Store) BindSession(ctx context.Context, sessionID id.SessionID) bool {
	s.mu.Lock()
	if s.rec.SessionID == sessionID {
		s.mu.Unlock()
		return false
	}
	stale := !s.rec.SessionID.IsNil()
	if stale {
		s.rec = s.rec.blank()
	}
	s.rec.SessionID = sessionID
	s.stamp()
	s.mu.Unlock()

	s.persist(ctx)
	return stale
}

// UnbindSession forgets the server session but keeps the drafts, so they can
// seed a fresh session.
func (s *Store) UnbindSession(ctx context.Context) {
	s.mu.Lock()
	s.rec.SessionID = id.SessionID{}
	s.stamp()
	s.mu.Unlock()
	s.persist(ctx)
}

// stamp must be called with mu held.
func (s *Store) stamp() {
	s.rec.UpdatedAt = s.now()
}

// persist writes the latest state. Saves are serialised so the last write
// always carries the newest record.
func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	rec := s.rec.Clone()
	s.mu.RUnlock()
	if err := s.persister.Save(ctx, s.ns, rec); err != nil {
		s.failed(ctx, "save", err)
	}
}

func (s *Store) failed(ctx context.Context, op string, err error) {
	s.logger.WarnContext(ctx, "draft persistence failed",
		"op", op,
		"namespace", s.ns.String(),
		"error", err,
	)
	if s.observer != nil {
		s.observer.DraftPersistFailed(op)
	}
}
