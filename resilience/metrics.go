package resilience

import (
	"github.com/voxchain/voxchain/telemetry"
)

// MetricsCollector interface for circuit breaker metrics
type MetricsCollector interface {
	RecordSuccess(name string)
	RecordFailure(name string, errorType string)
	RecordStateChange(name string, from, to string)
	RecordRejection(name string)
}

// noopMetrics is a no-op metrics implementation
type noopMetrics struct{}

func (n *noopMetrics) RecordSuccess(name string)                      {}
func (n *noopMetrics) RecordFailure(name string, errorType string)    {}
func (n *noopMetrics) RecordStateChange(name string, from, to string) {}
func (n *noopMetrics) RecordRejection(name string)                    {}

// TelemetryMetrics implements MetricsCollector using the telemetry API.
// Emission is a no-op until telemetry.Initialize is called, so breakers
// can be wired with this collector unconditionally.
type TelemetryMetrics struct{}

// NewTelemetryMetrics creates a metrics collector that uses the telemetry API
func NewTelemetryMetrics() *TelemetryMetrics {
	return &TelemetryMetrics{}
}

// RecordSuccess records a successful outcome observed by a breaker
func (t *TelemetryMetrics) RecordSuccess(name string) {
	telemetry.Counter("tts.breaker.outcomes", "name", name, "outcome", "success")
}

// RecordFailure records a failed outcome observed by a breaker
func (t *TelemetryMetrics) RecordFailure(name string, errorType string) {
	telemetry.Counter("tts.breaker.outcomes", "name", name, "outcome", "failure")
	telemetry.Counter("tts.breaker.failures", "name", name, "error_type", errorType)
}

// RecordStateChange records a breaker state transition
func (t *TelemetryMetrics) RecordStateChange(name string, from, to string) {
	telemetry.Counter("tts.breaker.state_changes",
		"name", name,
		"from_state", from,
		"to_state", to)

	// Also update the current state gauge
	stateValue := 0.0
	switch to {
	case "half-open":
		stateValue = 0.5
	case "open":
		stateValue = 1.0
	}
	telemetry.Gauge("tts.breaker.current_state", stateValue, "name", name)
}

// RecordRejection records a request skipped because a circuit was open
func (t *TelemetryMetrics) RecordRejection(name string) {
	telemetry.Counter("tts.breaker.rejected", "name", name)
}
