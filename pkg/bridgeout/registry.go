package bridgeout

import (
	"sync"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/types"
)

// Registry manages the protocol adaptors by their id.
type Registry struct {
	adaptors map[types.AdaptorID]Adaptor
	mu       sync.RWMutex
}

// NewRegistry returns an empty adaptor registry.
func NewRegistry() *Registry {
	return &Registry{
		adaptors: make(map[types.AdaptorID]Adaptor),
	}
}

// Register adds an adaptor under its own id. Re-registering replaces the
// previous adaptor (idempotent).
func (r *Registry) Register(adaptor Adaptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adaptors[adaptor.ID()] = adaptor
}

// Get retrieves the adaptor for id. Unregistered ids fail closed.
func (r *Registry) Get(id types.AdaptorID) (Adaptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adaptor, exists := r.adaptors[id]
	if !exists {
		return nil, bridgeerrors.ErrInvalidAdaptorID
	}
	return adaptor, nil
}

// SupportedAdaptors returns the registered ids.
func (r *Registry) SupportedAdaptors() []types.AdaptorID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.AdaptorID, 0, len(r.adaptors))
	for id := range r.adaptors {
		ids = append(ids, id)
	}
	return ids
}

// IsSupported checks whether an adaptor is registered for id.
func (r *Registry) IsSupported(id types.AdaptorID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.adaptors[id]
	return exists
}

// Unregister removes an adaptor (useful for testing).
func (r *Registry) Unregister(id types.AdaptorID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adaptors, id)
}
