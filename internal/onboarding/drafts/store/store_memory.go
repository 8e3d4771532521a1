// Package store holds the Persister backends for browser-session drafts.
package store

import (
	"context"
	"sync"

	"aplite/internal/onboarding/drafts"
	id "aplite/pkg/domain"
	"aplite/pkg/platform/sentinel"
)

// InMemoryStore keeps records for the life of the process.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.Namespace]drafts.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.Namespace]drafts.Record)}
}

func (s *InMemoryStore) Load(_ context.Context, ns id.Namespace) (drafts.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[ns]
	if !ok {
		return drafts.Record{}, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, ns id.Namespace, rec drafts.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[ns] = rec.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, ns id.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, ns)
	return nil
}
