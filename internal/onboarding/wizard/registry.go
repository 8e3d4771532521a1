package wizard

import (
	"context"
	"sync"
	"time"

	"aplite/internal/onboarding/drafts"
	"aplite/internal/onboarding/validator"
	id "aplite/pkg/domain"
)

// Registry hands out one Controller per namespace. A namespace opened by a
// different user than the one that created it starts from scratch: the old
// controller is dropped and its drafts invalidated.
type Registry struct {
	mu        sync.Mutex
	entries   map[id.Namespace]*entry
	drafts    *drafts.Registry
	newSync   func() Synchronizer
	validator *validator.Validator
	opts      []Option
	idle      time.Duration
	now       func() time.Time
}

type entry struct {
	ctrl     *Controller
	user     id.UserID
	lastUsed time.Time
}

type RegistryOption func(*Registry)

// WithControllerOptions applies opts to every controller the registry
// creates.
func WithControllerOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.opts = append(r.opts, opts...)
	}
}

func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idle = d
	}
}

func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry builds controllers from d's stores and a synchronizer made by
// newSync for each namespace.
func NewRegistry(d *drafts.Registry, newSync func() Synchronizer, v *validator.Validator, opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:   make(map[id.Namespace]*entry),
		drafts:    d,
		newSync:   newSync,
		validator: v,
		idle:      30 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the namespace's controller for user.
func (r *Registry) Open(ctx context.Context, ns id.Namespace, user id.UserID, device string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[ns]; ok {
		if e.user == user {
			// The store may have been swept on its own; a controller must
			// never outlive the store it writes to.
			if store := r.drafts.Open(ctx, ns, user, drafts.WithDevice(device)); store == e.ctrl.drafts {
				e.lastUsed = r.now()
				return e.ctrl
			}
		} else {
			r.drafts.Invalidate(ctx, ns)
		}
		delete(r.entries, ns)
	}

	store := r.drafts.Open(ctx, ns, user, drafts.WithDevice(device))
	opts := append(append([]Option{}, r.opts...), WithUser(user))
	ctrl := New(store, r.newSync(), r.validator, opts...)
	r.entries[ns] = &entry{ctrl: ctrl, user: user, lastUsed: r.now()}
	return ctrl
}

// Logout forgets the namespace's controller and clears its drafts.
func (r *Registry) Logout(ctx context.Context, ns id.Namespace) {
	r.mu.Lock()
	delete(r.entries, ns)
	r.mu.Unlock()
	r.drafts.Invalidate(ctx, ns)
}

// Sweep drops controllers idle for longer than the timeout along with their
// in-memory stores. Persisted drafts survive.
func (r *Registry) Sweep() []id.Namespace {
	r.mu.Lock()
	var evicted []id.Namespace
	cutoff := r.now().Add(-r.idle)
	for ns, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, ns)
			evicted = append(evicted, ns)
		}
	}
	r.mu.Unlock()

	r.drafts.Sweep()
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
