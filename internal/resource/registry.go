package resource

import "sync"

// Registry is the append-only ordered list of declared resources
// produced during one recipe evaluation (spec.md §4.3 / C3). No
// deduplication: two entries may share an identity by design.
type Registry struct {
	mu      sync.Mutex
	entries []Provider
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends box to the registry. Called by a provider's DSL
// handler after fill_common_from_marshal has populated its CommonProps
// (spec.md §6 "Provider interface").
func (r *Registry) Register(box Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, box)
}

// All returns the registered providers in declaration order. The
// returned slice is a snapshot; later Register calls do not affect it.
func (r *Registry) All() []Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Provider, len(r.entries))
	copy(out, r.entries)
	return out
}

// FindAll returns every provider whose Identity().String() equals id, in
// declaration order (spec.md §4.6 "If multiple targets match, notify
// each in declaration order").
func (r *Registry) FindAll(id string) []Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Provider
	for _, p := range r.entries {
		if p.Identity().String() == id {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered resources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear empties the registry, per spec.md §4.3 "Clear on run completion."
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
