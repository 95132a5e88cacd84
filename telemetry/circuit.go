package telemetry

import (
	"sync"
	"time"
)

// TelemetryCircuitBreaker sheds metric emissions while the collector is
// failing, so a down backend costs a state check per emit instead of a
// blocked export pipeline. This breaker is internal to telemetry; the
// per-provider synthesis breakers live in the resilience package.
type TelemetryCircuitBreaker struct {
	config CircuitConfig

	mu          sync.Mutex
	state       string // "closed", "open", "half-open"
	failures    int
	successes   int
	lastFailure time.Time
}

// CircuitConfig configures the telemetry circuit breaker
type CircuitConfig struct {
	Enabled      bool
	MaxFailures  int
	RecoveryTime time.Duration
	HalfOpenMax  int // Max probe requests in half-open state
}

// NewTelemetryCircuitBreaker creates a breaker, or nil when disabled.
// All methods are safe to call on a nil receiver.
func NewTelemetryCircuitBreaker(config CircuitConfig) *TelemetryCircuitBreaker {
	if !config.Enabled {
		return nil
	}

	if config.MaxFailures == 0 {
		config.MaxFailures = 10
	}
	if config.RecoveryTime == 0 {
		config.RecoveryTime = 30 * time.Second
	}
	if config.HalfOpenMax == 0 {
		config.HalfOpenMax = 5
	}

	return &TelemetryCircuitBreaker{config: config, state: "closed"}
}

// Allow checks if an emission should proceed
func (cb *TelemetryCircuitBreaker) Allow() bool {
	if cb == nil {
		return true // No circuit breaker configured
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case "open":
		if time.Since(cb.lastFailure) > cb.config.RecoveryTime {
			cb.state = "half-open"
			cb.successes = 0

			GetLogger().Info("Circuit breaker entering HALF-OPEN state", map[string]interface{}{
				"previous_state":    "open",
				"recovery_wait":     cb.config.RecoveryTime.String(),
				"max_test_requests": cb.config.HalfOpenMax,
				"action":            "Testing backend connectivity with limited requests",
			})
			return true
		}
		return false

	case "half-open":
		// Allow limited probe requests until enough of them succeed
		return cb.successes < cb.config.HalfOpenMax

	default: // closed
		return true
	}
}

// RecordSuccess records a successful export.
// In half-open state, enough successes close the circuit.
// In closed state, this resets the failure counter.
func (cb *TelemetryCircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case "half-open":
		cb.successes++
		if cb.successes >= cb.config.HalfOpenMax {
			cb.state = "closed"
			cb.failures = 0

			GetLogger().Info("Circuit breaker CLOSED - Telemetry recovered", map[string]interface{}{
				"recovery_tests": cb.successes,
				"state":          "closed",
				"impact":         "Metrics emission resumed",
			})
		}
	case "closed":
		cb.failures = 0
	}
}

// RecordFailure records a failed export and opens the circuit once the
// failure limit is reached.
func (cb *TelemetryCircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.failures >= cb.config.MaxFailures && cb.state != "open" {
		previousState := cb.state
		cb.state = "open"
		cb.successes = 0

		// Critical for operators: from here on metrics are dropped.
		GetLogger().Warn("Circuit breaker OPENED - Metrics will be dropped", map[string]interface{}{
			"previous_state": previousState,
			"failure_count":  cb.failures,
			"max_failures":   cb.config.MaxFailures,
			"recovery_time":  cb.config.RecoveryTime.String(),
			"impact":         "All metrics will be dropped until recovery",
			"action":         "Check OTLP collector health at configured endpoint",
		})
	}
}

// State returns the current circuit breaker state
func (cb *TelemetryCircuitBreaker) State() string {
	if cb == nil {
		return "disabled"
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset returns the breaker to closed with cleared counters
func (cb *TelemetryCircuitBreaker) Reset() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = "closed"
	cb.failures = 0
	cb.successes = 0
	cb.lastFailure = time.Time{}
}
