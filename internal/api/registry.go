package api

import (
	"sync"
	"time"

	"github.com/abhisek/mathquest/internal/session"
)

// registry holds live session states between requests. Each entry has its
// own lock so transitions of one session run one at a time.
type registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	mu      sync.Mutex
	st      session.State
	touched time.Time
}

func newRegistry(ttl time.Duration, now func() time.Time) *registry {
	return &registry{entries: make(map[string]*entry), ttl: ttl, now: now}
}

func (r *registry) put(st session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, e := range r.entries {
		if now.Sub(e.touched) > r.ttl {
			delete(r.entries, id)
		}
	}
	r.entries[st.ID] = &entry{st: st, touched: now}
}

// update runs fn on the session with its entry locked and stores the state
// fn returns, even alongside an error.
func (r *registry) update(id string, fn func(session.State) (session.State, error)) (session.State, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return session.State{}, errSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	st, err := fn(e.st)
	if st.ID != "" {
		e.st = st
	}
	r.mu.Lock()
	e.touched = r.now()
	r.mu.Unlock()
	return e.st, err
}

func (r *registry) get(id string) (session.State, error) {
	return r.update(id, func(st session.State) (session.State, error) { return st, nil })
}
