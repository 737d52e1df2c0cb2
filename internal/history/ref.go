package history

import (
	"context"
	"sync"
)

// Ref is a mutable cell holding the current server id of an entity.
// Commands that delete and recreate an entity share one Ref so that every
// later reversal targets the entity's latest id. A Ref created before the
// entity exists blocks Wait until Set or Fail is called.
type Ref struct {
	mu    sync.Mutex
	id    string
	err   error
	ready chan struct{}
	done  bool
}

// NewRef creates an unresolved reference
func NewRef() *Ref {
	return &Ref{ready: make(chan struct{})}
}

// ResolvedRef creates a reference to an entity that already exists
func ResolvedRef(id string) *Ref {
	r := NewRef()
	r.Set(id)
	return r
}

// Set records the entity's current id, resolving the reference if needed
func (r *Ref) Set(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.id = id
	r.err = nil
	r.resolve()
}

// Fail resolves an unresolved reference with an error. A reference that
// already carries an id is left unchanged.
func (r *Ref) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.err = err
	r.resolve()
}

// ID returns the current id, empty while unresolved
func (r *Ref) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Wait blocks until the reference resolves or ctx is done
func (r *Ref) Wait(ctx context.Context) (string, error) {
	select {
	case <-r.ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id, r.err
}

func (r *Ref) resolve() {
	if !r.done {
		r.done = true
		close(r.ready)
	}
}
