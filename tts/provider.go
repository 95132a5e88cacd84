package tts

import (
	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/resilience"
)

// NewDependencies builds the standard dependency set for provider
// construction: a production logger derived from the config and the
// real clock. Telemetry stays nil; providers fall back to the global
// telemetry registry for metrics.
func NewDependencies(cfg *core.Config) Dependencies {
	return Dependencies{
		Logger: core.NewProductionLogger(cfg.Logging, cfg.Development, cfg.Name),
		Clock:  clock.New(),
	}
}

// NewChainFromConfig builds a provider chain from configuration.
//
// Each configured provider is constructed through its registered
// factory and wrapped in its own circuit breaker. Construction
// failures are deliberately not fatal: a missing API key for one
// provider should not take down the others, so failures are logged
// and the provider is skipped. Only a chain with zero usable
// providers is an error.
func NewChainFromConfig(cfg *core.Config, deps Dependencies) (*ProviderChain, error) {
	if cfg == nil {
		return nil, &core.SynthesisError{
			Op:      "NewChainFromConfig",
			Kind:    "config",
			Message: "config must not be nil",
			Err:     core.ErrInvalidConfiguration,
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if cl, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cl.WithComponent("voxchain/tts")
	}

	resilienceDeps := resilience.ResilienceDependencies{
		Logger:    deps.Logger,
		Telemetry: deps.Telemetry,
		Clock:     deps.Clock,
	}

	var entries []Entry
	var skipped int

	for _, pc := range cfg.Providers {
		provider, err := CreateProvider(pc.Name, cfg, deps)
		if err != nil {
			skipped++
			logger.Warn("Provider construction failed, skipping", map[string]interface{}{
				"operation": "provider_skipped",
				"provider":  pc.Name,
				"error":     err.Error(),
			})
			continue
		}

		breaker, err := resilience.CreateBreaker(pc.Name, pc.CircuitBreaker, resilienceDeps)
		if err != nil {
			skipped++
			logger.Warn("Circuit breaker construction failed, skipping provider", map[string]interface{}{
				"operation": "provider_skipped",
				"provider":  pc.Name,
				"error":     err.Error(),
			})
			continue
		}

		entries = append(entries, Entry{
			Name:     pc.Name,
			Provider: provider,
			Priority: pc.Priority,
			Enabled:  pc.Enabled,
			Breaker:  breaker,
		})
	}

	if len(entries) == 0 {
		return nil, &core.SynthesisError{
			Op:      "NewChainFromConfig",
			Kind:    "config",
			Message: "no providers could be constructed",
			Err:     core.ErrNoProvidersAvailable,
		}
	}

	logger.Info("Providers constructed from config", map[string]interface{}{
		"operation": "providers_configured",
		"built":     len(entries),
		"skipped":   skipped,
	})

	return NewProviderChain(
		WithEntries(entries...),
		WithChainLogger(deps.Logger),
		WithChainClock(deps.Clock),
	)
}
