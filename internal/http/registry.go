package httpapi

import (
	"sync"

	"github.com/example/saferides/internal/ride"
)

// registry holds one workflow per rider session. A workflow that reached a
// terminal state is replaced lazily on the next access; a fresh request
// needs a fresh workflow.
type registry struct {
	mu      sync.Mutex
	byRider map[string]*ride.Workflow
	factory func(riderID string) *ride.Workflow
}

func newRegistry(factory func(string) *ride.Workflow) *registry {
	return &registry{byRider: make(map[string]*ride.Workflow), factory: factory}
}

func (r *registry) Get(riderID string) *ride.Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byRider[riderID]
	if ok && !w.State().Terminal() {
		return w
	}
	w = r.factory(riderID)
	r.byRider[riderID] = w
	return w
}

func (r *registry) Drop(riderID string) {
	r.mu.Lock()
	delete(r.byRider, riderID)
	r.mu.Unlock()
}
