package platform

import (
	"fmt"
	"sort"
)

// Registry holds the configured platform clients keyed by provider name.
type Registry struct {
	clients map[string]*Client
	order   []string
}

// NewRegistry builds a client per provider definition. Definitions are
// validated individually; the first invalid one fails construction.
func NewRegistry(configs []ProviderConfig, opts Options) (*Registry, error) {
	r := &Registry{clients: make(map[string]*Client, len(configs))}

	for _, cfg := range configs {
		if _, exists := r.clients[cfg.Name]; exists {
			return nil, fmt.Errorf("duplicate provider %q", cfg.Name)
		}
		client, err := NewClient(cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", cfg.Name, err)
		}
		r.clients[cfg.Name] = client
		r.order = append(r.order, cfg.Name)
	}

	sort.Strings(r.order)
	return r, nil
}

// Get returns the client for a provider name.
func (r *Registry) Get(name string) (*Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Names returns the provider names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Clients returns every client in provider name order.
func (r *Registry) Clients() []*Client {
	out := make([]*Client, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.clients[name])
	}
	return out
}
