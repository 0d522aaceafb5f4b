package sluice

import (
	"sync"
	"weak"
)

// registry tracks handles using weak pointers, so that membership alone
// never keeps an abandoned handle reachable. It holds membership only, no
// handle-internal state.
type registry struct {
	mu     sync.Mutex
	data   map[uint64]weak.Pointer[handle]
	nextID uint64
}

// instances is the process-wide registry of handles, the only state
// shared across handles.
var instances = &registry{data: make(map[uint64]weak.Pointer[handle])}

func (r *registry) register(h *handle) uint64 {
	wp := weak.Make(h)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.data[r.nextID] = wp
	return r.nextID
}

func (r *registry) unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
}

// snapshot returns the currently reachable registered handles, dropping
// entries whose handles were reclaimed without ever being closed.
func (r *registry) snapshot() []*handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := make([]*handle, 0, len(r.data))
	for id, wp := range r.data {
		if h := wp.Value(); h != nil {
			handles = append(handles, h)
		} else {
			delete(r.data, id)
		}
	}
	return handles
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// CloseAll force-closes every handle that is still open, logging failures
// and continuing with the remaining handles. It is the process-shutdown
// sweep for handles abandoned without an explicit Close: applications
// register it as a shutdown hook, typically `defer sluice.CloseAll()` at
// the top of main. Handles mid-construction are skipped; their
// constructor owns their teardown.
func CloseAll() {
	for _, h := range instances.snapshot() {
		h.closeAbandoned(`shutdown sweep`)
	}
}
