package router

import (
	"fmt"
	"sort"
)

// Registry is the immutable slug → route mapping built once at startup.
type Registry struct {
	routes map[string]*Route
	slugs  []string
}

// NewRegistry validates every route and freezes the mapping. Slugs are
// unique by map construction; empty slugs and nil or misconfigured routes
// are rejected.
func NewRegistry(routes map[string]*Route) (*Registry, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("registry: no routes")
	}

	reg := &Registry{
		routes: make(map[string]*Route, len(routes)),
		slugs:  make([]string, 0, len(routes)),
	}
	for slug, r := range routes {
		if slug == "" {
			return nil, fmt.Errorf("registry: empty slug")
		}
		if r == nil {
			return nil, fmt.Errorf("registry: route %q is nil", slug)
		}
		if err := r.validate(slug); err != nil {
			return nil, err
		}
		reg.routes[slug] = r
		reg.slugs = append(reg.slugs, slug)
	}
	sort.Strings(reg.slugs)

	return reg, nil
}

// Lookup resolves a slug to its route.
func (g *Registry) Lookup(slug string) (*Route, bool) {
	r, ok := g.routes[slug]
	return r, ok
}

// Slugs returns the registered slugs in sorted order.
func (g *Registry) Slugs() []string {
	out := make([]string, len(g.slugs))
	copy(out, g.slugs)
	return out
}
