package providers

import "github.com/jrsteele09/go-social-connect/platforms"

// Registry is the single dispatch point from a platform to its adapter. It is built once at
// startup and only read afterwards.
type Registry struct {
	adapters map[platforms.Platform]Adapter
}

// NewRegistry indexes adapters by platform. A later adapter replaces an earlier one for the
// same platform.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[platforms.Platform]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// Adapter returns the adapter for p.
func (r *Registry) Adapter(p platforms.Platform) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// Platforms lists the registered platforms in canonical order.
func (r *Registry) Platforms() []platforms.Platform {
	out := make([]platforms.Platform, 0, len(r.adapters))
	for _, p := range platforms.All {
		if _, ok := r.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
