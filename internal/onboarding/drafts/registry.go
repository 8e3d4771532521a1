package drafts

import (
	"context"
	"sync"
	"time"

	id "aplite/pkg/domain"
)

// Registry owns one Store per browser-session namespace. Stores are created
// on first use and dropped on logout or after IdleTimeout without access.
type Registry struct {
	mu        sync.Mutex
	entries   map[id.Namespace]*registryEntry
	persister Persister
	opts      []Option
	idle      time.Duration
	now       func() time.Time
}

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

type RegistryOption func(*Registry)

// WithStoreOptions applies opts to every store the registry creates.
func WithStoreOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.opts = append(r.opts, opts...)
	}
}

func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idle = d
	}
}

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(persister Persister, opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:   make(map[id.Namespace]*registryEntry),
		persister: persister,
		idle:      30 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns owner's store for the namespace, restoring persisted drafts
// the first time. A store held for a different owner is cleared and
// replaced. extra options apply only when the store is created.
func (r *Registry) Open(ctx context.Context, ns id.Namespace, owner id.UserID, extra ...Option) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[ns]; ok {
		if e.store.Owner() == owner {
			e.lastUsed = r.now()
			return e.store
		}
		delete(r.entries, ns)
		e.store.ClearAll(ctx)
	}
	opts := append(append([]Option{}, r.opts...), extra...)
	opts = append(opts, WithOwner(owner))
	s := NewStore(ns, r.persister, opts...)
	s.Restore(ctx)
	r.entries[ns] = &registryEntry{store: s, lastUsed: r.now()}
	return s
}

// Invalidate clears the namespace's drafts, including persisted ones, and
// forgets the store.
func (r *Registry) Invalidate(ctx context.Context, ns id.Namespace) {
	r.mu.Lock()
	e, ok := r.entries[ns]
	delete(r.entries, ns)
	r.mu.Unlock()

	if ok {
		e.store.ClearAll(ctx)
		return
	}
	NewStore(ns, r.persister, r.opts...).ClearAll(ctx)
}

// Sweep drops stores idle for longer than the timeout. Persisted drafts are
// kept, so a later Open restores them. It returns the evicted namespaces.
func (r *Registry) Sweep() []id.Namespace {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []id.Namespace
	cutoff := r.now().Add(-r.idle)
	for ns, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, ns)
			evicted = append(evicted, ns)
		}
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
