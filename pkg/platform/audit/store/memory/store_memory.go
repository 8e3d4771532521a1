package memory

import (
	"context"
	"sync"

	id "aplite/pkg/domain"
	audit "aplite/pkg/platform/audit"
)

// defaultPerUser bounds the mirror in a long-running BFF.
const defaultPerUser = 200

// InMemoryStore keeps the most recent events per user, oldest first.
type InMemoryStore struct {
	mu      sync.RWMutex
	perUser int
	events  map[id.UserID][]audit.Event
}

type Option func(*InMemoryStore)

// WithPerUserLimit caps retained events per user; n <= 0 keeps everything.
func WithPerUserLimit(n int) Option {
	return func(s *InMemoryStore) {
		s.perUser = n
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		perUser: defaultPerUser,
		events:  make(map[id.UserID][]audit.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.events[event.UserID], event)
	if s.perUser > 0 && len(list) > s.perUser {
		list = append([]audit.Event(nil), list[len(list)-s.perUser:]...)
	}
	s.events[event.UserID] = list
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[userID]...), nil
}

// ListBySession returns one onboarding session's events for a user.
func (s *InMemoryStore) ListBySession(_ context.Context, userID id.UserID, sessionID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events[userID] {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}
