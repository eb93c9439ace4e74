package authstore

import (
	"errors"
	"sync"
	"time"
)

// Factory builds the Store of a client on first use.
type Factory func(clientID string) (*Store, error)

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// Registry keeps one [Store] per client so that overlapping navigations from
// the same client share state and in-flight checks.
type Registry struct {
	factory Factory
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the Store of clientID, creating it when needed.
func (r *Registry) Get(clientID string) (*Store, error) {
	if clientID == "" {
		return nil, errors.New("client id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[clientID]; ok {
		e.lastSeen = r.now()
		return e.store, nil
	}
	if r.factory == nil {
		return nil, errors.New("registry has no factory")
	}

	store, err := r.factory(clientID)
	if err != nil {
		return nil, err
	}
	r.entries[clientID] = &registryEntry{store: store, lastSeen: r.now()}
	return store, nil
}

// Forget drops the Store of clientID. Persisted credentials are untouched.
func (r *Registry) Forget(clientID string) {
	r.mu.Lock()
	delete(r.entries, clientID)
	r.mu.Unlock()
}

// Sweep drops stores unused for longer than idle and returns how many were removed.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
