package telemetry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxchain/voxchain/core"
)

var (
	// globalRegistry holds the singleton registry. Atomic so the emit
	// hot path reads it without locking.
	globalRegistry atomic.Pointer[Registry]

	// initOnce makes Initialize first-call-wins.
	initOnce sync.Once

	// declaredMetrics collects ModuleConfig values stored by init
	// functions before Initialize runs. sync.Map because package init
	// order is not under our control.
	declaredMetrics sync.Map // module name -> ModuleConfig

	// Self-observability counters, exposed through GetHealth.
	emitErrors  atomic.Int64
	emitDropped atomic.Int64
)

// ModuleConfig carries the metric declarations of one module.
type ModuleConfig struct {
	Metrics []MetricDefinition
}

// MetricDefinition describes one metric: the instrument type plus the
// metadata applied when the instrument is created.
type MetricDefinition struct {
	Name    string
	Type    string // "counter", "gauge" or "histogram"
	Help    string
	Labels  []string
	Unit    string
	Buckets []float64 // histogram bucket boundaries
}

// Registry owns the telemetry subsystems: the OpenTelemetry provider,
// the cardinality limiter and the backend circuit breaker.
type Registry struct {
	config   Config
	provider *OTelProvider
	limiter  *CardinalityLimiter
	circuit  *TelemetryCircuitBreaker
	logger   *TelemetryLogger

	emitted      atomic.Int64
	startTime    time.Time
	lastError    atomic.Value // string
	errorLimiter *RateLimiter
}

// DeclareMetrics registers a module's metric definitions. Safe to call
// from init functions; the declarations are applied when Initialize
// runs. A later declaration for the same module replaces the earlier
// one.
func DeclareMetrics(module string, config ModuleConfig) {
	declaredMetrics.Store(module, config)
}

// Initialize activates telemetry with the given configuration. Only
// the first call takes effect. On failure the Emit functions stay
// no-ops, so callers may treat the error as non-fatal.
func Initialize(config Config) error {
	var initErr error
	initOnce.Do(func() {
		logger := NewTelemetryLogger(config.ServiceName)
		logger.Info("Telemetry initialization starting", map[string]interface{}{
			"service_name":      config.ServiceName,
			"endpoint":          config.Endpoint,
			"stdout_traces":     config.UseStdout,
			"cardinality_limit": config.CardinalityLimit,
			"circuit_enabled":   config.CircuitBreaker.Enabled,
		})

		registry, err := newRegistry(config)
		if err != nil {
			initErr = err
			logger.Error("Telemetry initialization failed", map[string]interface{}{
				"error":    err.Error(),
				"endpoint": config.Endpoint,
				"action":   "Check the OTLP collector at the configured endpoint",
				"impact":   "No metrics or traces will be exported",
			})
			return
		}
		registry.logger = logger

		declared := 0
		declaredMetrics.Range(func(key, value interface{}) bool {
			moduleConfig := value.(ModuleConfig)
			registry.provider.metrics.Preregister(key.(string), moduleConfig.Metrics)
			declared++
			logger.Debug("Registered module metrics", map[string]interface{}{
				"module":       key.(string),
				"metric_count": len(moduleConfig.Metrics),
			})
			return true
		})

		globalRegistry.Store(registry)
		logger.EnableMetrics()

		logger.Info("Telemetry system initialized", map[string]interface{}{
			"declared_modules": declared,
			"circuit_enabled":  registry.circuit != nil,
			"limiter_enabled":  registry.limiter != nil,
		})
	})
	return initErr
}

// newRegistry builds a registry from the config, filling defaults.
func newRegistry(config Config) (*Registry, error) {
	if config.Endpoint == "" {
		config.Endpoint = "localhost:4317"
	}
	if config.ServiceName == "" {
		config.ServiceName = "voxchain"
	}
	if config.CardinalityLimit == 0 {
		config.CardinalityLimit = 10000
	}

	provider, err := NewOTelProvider(config)
	if err != nil {
		return nil, fmt.Errorf("creating OTel provider: %w", err)
	}

	limits := config.CardinalityLimits
	if limits == nil {
		limits = map[string]int{
			"provider":   20,
			"name":       20,
			"voice":      100,
			"state":      10,
			"status":     10,
			"outcome":    10,
			"error_type": 50,
		}
	}

	r := &Registry{
		config:       config,
		provider:     provider,
		limiter:      NewCardinalityLimiter(limits),
		circuit:      NewTelemetryCircuitBreaker(config.CircuitBreaker),
		startTime:    time.Now(),
		errorLimiter: NewRateLimiter(time.Second),
	}
	r.lastError.Store("")
	return r, nil
}

// emit applies the safety checks and records the metric.
func (r *Registry) emit(name string, value float64, labels map[string]string) error {
	if r.circuit != nil && !r.circuit.Allow() {
		emitDropped.Add(1)
		return fmt.Errorf("telemetry circuit breaker open")
	}

	if r.limiter != nil {
		for key, val := range labels {
			if limited := r.limiter.CheckAndLimit(name, key, val); limited != val {
				labels[key] = limited
			}
		}
	}

	if err := r.provider.Record(name, value, labels); err != nil {
		if r.circuit != nil {
			r.circuit.RecordFailure()
		}
		return err
	}

	r.emitted.Add(1)
	if r.circuit != nil {
		r.circuit.RecordSuccess()
	}
	return nil
}

// Emit records a metric through the global registry. A no-op until
// Initialize succeeds. Labels are key-value pairs; a trailing key
// without a value is dropped.
func Emit(name string, value float64, labels ...string) {
	r := globalRegistry.Load()
	if r == nil {
		return
	}

	if err := r.emit(name, value, parseLabels(labels...)); err != nil {
		emitErrors.Add(1)
		r.lastError.Store(err.Error())

		// Rate-limited so a down collector cannot flood the logs.
		if r.logger != nil && r.errorLimiter != nil && r.errorLimiter.Allow() {
			r.logger.Error("Failed to emit metric", map[string]interface{}{
				"metric": name,
				"value":  value,
				"error":  err.Error(),
			})
		}
	}
}

// parseLabels converts "k1", "v1", "k2", "v2" to a map.
func parseLabels(labels ...string) map[string]string {
	m := make(map[string]string, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		m[labels[i]] = labels[i+1]
	}
	return m
}

// Shutdown flushes exporters and stops background workers. Emit
// becomes a no-op again once shutdown completes.
func Shutdown(ctx context.Context) error {
	r := globalRegistry.Load()
	if r == nil {
		return nil
	}

	if r.logger != nil {
		r.logger.Info("Shutting down telemetry", map[string]interface{}{
			"total_emitted": r.emitted.Load(),
			"uptime_ms":     time.Since(r.startTime).Milliseconds(),
		})
	}

	// Stop accepting emissions before tearing the provider down.
	globalRegistry.Store(nil)

	if r.limiter != nil {
		r.limiter.Stop()
	}
	if r.provider != nil {
		return r.provider.Shutdown(ctx)
	}
	return nil
}

// GetRegistry returns the active registry, or nil when telemetry has
// not been initialized.
func GetRegistry() *Registry {
	return globalRegistry.Load()
}

// GetTelemetryProvider returns the OTel provider as a core.Telemetry
// for injection into components that create spans. Nil before
// Initialize.
func GetTelemetryProvider() core.Telemetry {
	r := globalRegistry.Load()
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider
}
