// Package pending tracks cancellation callbacks for in-flight HTTP requests.
//
// Each browser client owns one [Registry]. A request registers its cancel
// function before it is dispatched and releases it once it settles; the next
// navigation of that client drains the registry, cancelling whatever is
// still outstanding. Cancellation is advisory: callers must ignore any
// response that arrives after their context was cancelled.
package pending

import "sync"

// entry is one registered callback. The pointer identity lets release find
// its own entry after earlier ones were removed.
type entry struct {
	cancel func()
}

// Registry is an ordered list of cancellation callbacks.
//
// Registry is safe for concurrent use. The zero value is ready to use.
type Registry struct {
	mu      sync.Mutex
	entries []*entry
}

// Register appends cancel to the registry and returns a release function
// that removes it again. Release is idempotent and does not call cancel.
// A nil cancel is ignored.
func (r *Registry) Register(cancel func()) (release func()) {
	if cancel == nil {
		return func() {}
	}

	e := &entry{cancel: cancel}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(e) })
	}
}

// DrainAndCancel invokes every registered callback in registration order and
// clears the registry. It returns the number of callbacks invoked. Draining
// an empty registry is a no-op.
//
// Callbacks run after the lock is released, so a callback may safely use the
// registry.
func (r *Registry) DrainAndCancel() int {
	r.mu.Lock()
	drained := r.entries
	r.entries = nil
	r.mu.Unlock()

	for _, e := range drained {
		e.cancel()
	}
	return len(drained)
}

// Len returns the number of outstanding callbacks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) remove(target *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e == target {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Registrar accepts cancellation callbacks. [*Registry] and the handles
// returned by [Pool.Client] implement it.
type Registrar interface {
	Register(cancel func()) (release func())
}

// Pool hands out one [Registry] per client id.
//
// The pool is owned by the application shell and shared by the navigator
// and the request proxy so both see the same registry for a client. A
// client's registry exists only while it holds callbacks: draining removes
// it, and so does releasing its last callback.
type Pool struct {
	mu         sync.Mutex
	registries map[string]*Registry
}

// NewPool creates an empty [Pool].
func NewPool() *Pool {
	return &Pool{
		registries: make(map[string]*Registry),
	}
}

// For returns the registry of clientID, creating it on first use. Callbacks
// registered directly on the returned registry are not pruned on release;
// use [Pool.Register] or [Pool.Client] for that.
func (p *Pool) For(clientID string) *Registry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forLocked(clientID)
}

func (p *Pool) forLocked(clientID string) *Registry {
	reg, ok := p.registries[clientID]
	if !ok {
		reg = &Registry{}
		p.registries[clientID] = reg
	}
	return reg
}

// Register adds cancel to the registry of clientID. Once release has run and
// the registry is empty, the registry is dropped from the pool.
func (p *Pool) Register(clientID string, cancel func()) (release func()) {
	p.mu.Lock()
	reg := p.forLocked(clientID)
	// under p.mu so a concurrent drain cannot detach reg before the add
	unregister := reg.Register(cancel)
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			unregister()
			p.prune(clientID, reg)
		})
	}
}

// Client returns a [Registrar] bound to clientID.
func (p *Pool) Client(clientID string) Registrar {
	return clientRegistrar{pool: p, clientID: clientID}
}

type clientRegistrar struct {
	pool     *Pool
	clientID string
}

func (c clientRegistrar) Register(cancel func()) (release func()) {
	return c.pool.Register(c.clientID, cancel)
}

// DrainAndCancel removes the registry of clientID and cancels everything it
// held, in registration order. It returns the number of callbacks invoked.
func (p *Pool) DrainAndCancel(clientID string) int {
	p.mu.Lock()
	reg, ok := p.registries[clientID]
	delete(p.registries, clientID)
	p.mu.Unlock()

	if !ok {
		return 0
	}
	return reg.DrainAndCancel()
}

// Forget cancels everything outstanding for clientID and drops its registry.
func (p *Pool) Forget(clientID string) {
	p.DrainAndCancel(clientID)
}

// Len returns the number of clients with a registry.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.registries)
}

// prune drops reg if it is still the registry of clientID and holds nothing.
func (p *Pool) prune(clientID string, reg *Registry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.registries[clientID] == reg && reg.Len() == 0 {
		delete(p.registries, clientID)
	}
}
