package dispatch

import (
	"context"
	"encoding/json"
	"sync"
)

// Handler answers one Request's arguments with a result value (serialized
// by the caller's chosen Serializer) or an error.
type Handler func(ctx context.Context, args []json.RawMessage) (any, error)

// InspectHandler answers an InspectRequest's opaque payload with opaque
// response bytes. Registering one is how a server opts into supporting
// InspectRequest/InspectResponse; the default (nil) treats InspectRequest
// as unsupported.
type InspectHandler func(inspectType byte, data []byte) ([]byte, error)

// Registry maps "namespace/function" names to Handlers. Built once at
// server construction and shared read-only across every connection, the
// way original_source's SlackerService wraps an Arc<BTreeMap<...>>.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces the Handler for fname ("namespace/function").
func (r *Registry) Register(fname string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[fname] = h
}

func (r *Registry) lookup(fname string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[fname]
	return h, ok
}
