package tts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/resilience"
)

// Entry pairs a provider with its slot in the fallback chain: the
// priority that orders the default sequence, the enabled flag that
// gates participation, and the circuit breaker guarding the provider.
type Entry struct {
	Name     string
	Provider core.Provider
	Priority int
	Enabled  bool
	Breaker  *resilience.Breaker
}

// Registry holds the set of known providers. It is immutable after
// construction, so lookups need no synchronization; all per-request
// mutability lives in the circuit breakers.
type Registry struct {
	byName  map[string]*Entry // keyed by lowercased name
	ordered []*Entry          // priority ascending, ties by name
}

// NewRegistry builds a registry from the given entries. Entry names are
// taken from the provider when unset. Duplicate names (compared
// case-insensitively), missing providers, and missing breakers are
// configuration errors.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{
		byName:  make(map[string]*Entry, len(entries)),
		ordered: make([]*Entry, 0, len(entries)),
	}

	for i := range entries {
		e := entries[i]
		if e.Provider == nil {
			return nil, &core.SynthesisError{
				Op:      "NewRegistry",
				Kind:    "config",
				Message: fmt.Sprintf("entry %d has no provider", i),
				Err:     core.ErrInvalidConfiguration,
			}
		}
		if e.Name == "" {
			e.Name = e.Provider.Name()
		}
		if e.Name == "" {
			return nil, &core.SynthesisError{
				Op:      "NewRegistry",
				Kind:    "config",
				Message: fmt.Sprintf("entry %d has no name", i),
				Err:     core.ErrInvalidConfiguration,
			}
		}
		if e.Breaker == nil {
			return nil, &core.SynthesisError{
				Op:      "NewRegistry",
				Kind:    "config",
				Message: fmt.Sprintf("provider %q has no circuit breaker", e.Name),
				Err:     core.ErrInvalidConfiguration,
			}
		}

		key := strings.ToLower(e.Name)
		if _, exists := r.byName[key]; exists {
			return nil, &core.SynthesisError{
				Op:      "NewRegistry",
				Kind:    "config",
				Message: fmt.Sprintf("duplicate provider %q", e.Name),
				Err:     core.ErrInvalidConfiguration,
			}
		}

		entry := &e
		r.byName[key] = entry
		r.ordered = append(r.ordered, entry)
	}

	// Default chain order: priority ascending, ties broken by name so
	// the sequence is stable across restarts.
	sort.Slice(r.ordered, func(i, j int) bool {
		if r.ordered[i].Priority != r.ordered[j].Priority {
			return r.ordered[i].Priority < r.ordered[j].Priority
		}
		return strings.ToLower(r.ordered[i].Name) < strings.ToLower(r.ordered[j].Name)
	})

	return r, nil
}

// Lookup returns the entry for the named provider, matched
// case-insensitively.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.byName[strings.ToLower(name)]
	return e, ok
}

// DefaultOrder returns the enabled entries in default chain order.
func (r *Registry) DefaultOrder() []*Entry {
	out := make([]*Entry, 0, len(r.ordered))
	for _, e := range r.ordered {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// All returns every entry, enabled or not, in default chain order.
// Used for status reporting.
func (r *Registry) All() []*Entry {
	out := make([]*Entry, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Names returns the canonical names of all entries in default chain order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, e := range r.ordered {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.byName)
}
