package tts

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
)

// Dependencies holds optional dependencies injected into provider
// factories (follows library pattern). Zero values mean "use defaults":
// a no-op logger, the real clock, and an internally owned HTTP client.
type Dependencies struct {
	Logger     core.Logger
	Telemetry  core.Telemetry
	Clock      clock.Clock
	HTTPClient *http.Client
}

// ProviderFactory defines the interface for synthesis provider factories
type ProviderFactory interface {
	// Create builds a provider instance from the library configuration.
	// Construction must fail fast on unusable configuration, e.g.
	// unresolvable API key secrets.
	Create(config *core.Config, deps Dependencies) (core.Provider, error)

	// DetectEnvironment checks if this provider can be used with the
	// current environment. Returns priority (higher = preferred) and
	// availability.
	DetectEnvironment() (priority int, available bool)

	// Name returns the provider's name
	Name() string

	// Description returns a human-readable description
	Description() string
}

// factoryRegistry manages registered provider factories
type factoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// Global registry instance
var factories = &factoryRegistry{
	factories: make(map[string]ProviderFactory),
}

// Register registers a new provider factory
// This is typically called from init() functions in provider packages
func Register(factory ProviderFactory) error {
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	name := factory.Name()
	if name == "" {
		return fmt.Errorf("factory.Name() cannot be empty")
	}

	factories.mu.Lock()
	defer factories.mu.Unlock()

	if _, exists := factories.factories[name]; exists {
		return fmt.Errorf("provider '%s' already registered", name)
	}

	factories.factories[name] = factory
	return nil
}

// MustRegister registers a provider factory and panics on error
// Use this in init() functions where errors cannot be handled
func MustRegister(factory ProviderFactory) {
	if err := Register(factory); err != nil {
		panic(fmt.Sprintf("failed to register provider: %v", err))
	}
}

// GetFactory retrieves a registered factory by name
func GetFactory(name string) (ProviderFactory, bool) {
	factories.mu.RLock()
	defer factories.mu.RUnlock()

	factory, exists := factories.factories[name]
	return factory, exists
}

// ListFactories returns all registered factory names
func ListFactories() []string {
	factories.mu.RLock()
	defer factories.mu.RUnlock()

	names := make([]string, 0, len(factories.factories))
	for name := range factories.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FactoryInfo contains information about a registered provider factory
type FactoryInfo struct {
	Name        string
	Description string
	Available   bool
	Priority    int
}

// GetFactoryInfo returns information about all registered factories
func GetFactoryInfo() []FactoryInfo {
	factories.mu.RLock()
	defer factories.mu.RUnlock()

	info := make([]FactoryInfo, 0, len(factories.factories))
	for name, factory := range factories.factories {
		priority, available := factory.DetectEnvironment()
		info = append(info, FactoryInfo{
			Name:        name,
			Description: factory.Description(),
			Available:   available,
			Priority:    priority,
		})
	}

	// Sort by priority (highest first), then by name
	sort.Slice(info, func(i, j int) bool {
		if info[i].Priority != info[j].Priority {
			return info[i].Priority > info[j].Priority
		}
		return info[i].Name < info[j].Name
	})

	return info
}

// CreateProvider builds a provider through its registered factory.
func CreateProvider(name string, config *core.Config, deps Dependencies) (core.Provider, error) {
	factory, ok := GetFactory(name)
	if !ok {
		return nil, &core.SynthesisError{
			Op:      "CreateProvider",
			Kind:    "config",
			Message: fmt.Sprintf("no factory registered for provider %q", name),
			Err:     core.ErrProviderNotFound,
		}
	}
	return factory.Create(config, deps)
}
