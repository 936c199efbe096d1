// backend/src/providers/registry.go
package providers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownDefaultProvider is returned by NewRegistry when the configured
// default provider was never registered. This is a fatal configuration error;
// the process must not start.
var ErrUnknownDefaultProvider = errors.New("default provider not registered")

// Registry is an immutable name -> Provider lookup. Keys are normalized on
// insert and lookup so callers are case-insensitive. There is no dynamic
// registration after construction.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

// NewRegistry builds a registry from a fixed set of providers and validates
// that defaultName is among them.
func NewRegistry(defaultName string, provs ...Provider) (*Registry, error) {
	r := &Registry{
		providers:   make(map[string]Provider, len(provs)),
		defaultName: normalizeName(defaultName),
	}
	for _, p := range provs {
		r.providers[normalizeName(p.Name())] = p
	}
	if _, ok := r.providers[r.defaultName]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefaultProvider, defaultName)
	}
	return r, nil
}

// Get looks a provider up by name, case-insensitively.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[normalizeName(name)]
	return p, ok
}

// Default returns the configured default provider.
func (r *Registry) Default() Provider {
	return r.providers[r.defaultName]
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
