package resilience

import (
	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/telemetry"
)

// ResilienceDependencies holds optional dependencies (follows library pattern)
type ResilienceDependencies struct {
	Logger    core.Logger
	Telemetry core.Telemetry
	Clock     clock.Clock
}

// Helper function to detect global telemetry availability
func globalTelemetryAvailable() bool {
	// Check if the telemetry module has been initialized globally
	return telemetry.GetRegistry() != nil
}

// CreateBreaker creates a circuit breaker for the named provider from
// its configuration section, with proper dependency injection.
func CreateBreaker(name string, cfg core.CircuitBreakerConfig, deps ResilienceDependencies) (*Breaker, error) {
	settings := DefaultSettings(name)
	if cfg.FailureThreshold != 0 {
		settings.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.ResetTimeout != 0 {
		settings.ResetTimeout = cfg.ResetTimeout
	}
	settings.UseExponentialBackoff = cfg.UseExponentialBackoff
	if cfg.MaxResetTimeout != 0 {
		settings.MaxResetTimeout = cfg.MaxResetTimeout
	}

	if deps.Clock != nil {
		settings.Clock = deps.Clock
	}

	// Ensure logger is available
	if deps.Logger != nil {
		settings.Logger = createBreakerLogger(deps.Logger)
	} else {
		// Create default production logger
		settings.Logger = createBreakerLogger(core.NewProductionLogger(
			core.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			core.DevelopmentConfig{},
			"circuit-breaker",
		))
	}

	// Auto-detect and enable telemetry if available
	if deps.Telemetry != nil {
		settings.Metrics = NewTelemetryMetrics()
		settings.Logger.Info("Telemetry integration enabled for circuit breaker", map[string]interface{}{
			"operation": "telemetry_integration",
			"name":      name,
			"component": "circuit_breaker",
		})
	} else {
		// Check if telemetry module is available globally
		if globalTelemetryAvailable() {
			settings.Metrics = NewTelemetryMetrics()
			settings.Logger.Info("Global telemetry detected and enabled", map[string]interface{}{
				"operation": "telemetry_auto_detection",
				"name":      name,
				"component": "circuit_breaker",
			})
		}
	}

	return NewBreaker(settings)
}

// createBreakerLogger attributes entries to the resilience component
// regardless of which caller wired the logger in.
func createBreakerLogger(logger core.Logger) core.Logger {
	if logger == nil {
		return &core.NoOpLogger{}
	}
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		return cal.WithComponent("voxchain/resilience")
	}
	return logger
}

// WithLogger creates dependency injection option
func WithLogger(logger core.Logger) func(*ResilienceDependencies) {
	return func(d *ResilienceDependencies) {
		d.Logger = logger
	}
}

// WithTelemetry creates dependency injection option
func WithTelemetry(telemetry core.Telemetry) func(*ResilienceDependencies) {
	return func(d *ResilienceDependencies) {
		d.Telemetry = telemetry
	}
}

// WithClock creates dependency injection option for deterministic time
func WithClock(c clock.Clock) func(*ResilienceDependencies) {
	return func(d *ResilienceDependencies) {
		d.Clock = c
	}
}
