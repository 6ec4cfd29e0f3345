package provider

import (
	"fmt"
	"slices"
)

// Registry maps provider names to the configured implementations. The
// client resolves AUTH_PROVIDER through it; it holds no auth state.
type Registry struct {
	byName map[string]IdentityProvider
}

// NewRegistry fails on a nil provider or a repeated name.
func NewRegistry(list ...IdentityProvider) (*Registry, error) {
	r := &Registry{byName: make(map[string]IdentityProvider, len(list))}
	for i, p := range list {
		if p == nil {
			return nil, fmt.Errorf("identity provider %d is nil", i)
		}
		name := p.Name()
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("identity provider %q registered twice", name)
		}
		r.byName[name] = p
	}
	return r, nil
}

// Get looks a provider up by name.
func (r *Registry) Get(name string) (IdentityProvider, error) {
	if p, ok := r.byName[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unknown identity provider: %s (registered: %v)", name, r.Names())
}

// Names lists the registered providers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
