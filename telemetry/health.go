package telemetry

import (
	"encoding/json"
	"net/http"
	"time"
)

// Health is a snapshot of the telemetry system's own condition.
type Health struct {
	Enabled         bool   `json:"enabled"`
	Provider        string `json:"provider"`
	MetricsEmitted  int64  `json:"metrics_emitted"`
	MetricsDropped  int64  `json:"metrics_dropped"`
	Errors          int64  `json:"errors"`
	LastError       string `json:"last_error,omitempty"`
	CircuitState    string `json:"circuit_state"`
	Uptime          string `json:"uptime"`
	CardinalityUsed int    `json:"cardinality_used"`
	CardinalityMax  int    `json:"cardinality_max"`
	Initialized     bool   `json:"initialized"`
}

// GetHealth returns the current health of the telemetry system.
func GetHealth() Health {
	r := globalRegistry.Load()
	if r == nil {
		return Health{
			Enabled:     false,
			Initialized: false,
		}
	}

	lastErr := ""
	if errVal := r.lastError.Load(); errVal != nil {
		if errStr, ok := errVal.(string); ok {
			lastErr = errStr
		}
	}

	circuitState := "disabled"
	if r.circuit != nil {
		circuitState = r.circuit.State()
	}

	cardinalityUsed := 0
	cardinalityMax := 0
	if r.limiter != nil {
		cardinalityUsed = r.limiter.CurrentCardinality()
		cardinalityMax = r.limiter.MaxCardinality()
	}

	return Health{
		Enabled:         true,
		Provider:        "otel",
		MetricsEmitted:  r.emitted.Load(),
		MetricsDropped:  emitDropped.Load(),
		Errors:          emitErrors.Load(),
		LastError:       lastErr,
		CircuitState:    circuitState,
		Uptime:          time.Since(r.startTime).String(),
		CardinalityUsed: cardinalityUsed,
		CardinalityMax:  cardinalityMax,
		Initialized:     true,
	}
}

// HealthHandler serves the telemetry health as JSON. Not initialized
// or circuit open reports 503; a high emit error rate reports 206.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := GetHealth()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case !health.Enabled || !health.Initialized:
		w.WriteHeader(http.StatusServiceUnavailable)
	case health.CircuitState == "open":
		w.WriteHeader(http.StatusServiceUnavailable)
	case health.Errors > 0 && health.MetricsEmitted == 0:
		w.WriteHeader(http.StatusServiceUnavailable)
	case float64(health.Errors)/float64(health.MetricsEmitted+1) > 0.1:
		// More than 10% error rate
		w.WriteHeader(http.StatusPartialContent)
	default:
		w.WriteHeader(http.StatusOK)
	}

	_ = json.NewEncoder(w).Encode(health)
}

// InternalMetrics exposes the self-observability counters.
type InternalMetrics struct {
	Errors  int64 `json:"errors"`
	Dropped int64 `json:"dropped"`
	Emitted int64 `json:"emitted"`
}

// GetInternalMetrics returns the self-observability counters.
func GetInternalMetrics() InternalMetrics {
	emitted := int64(0)
	if r := globalRegistry.Load(); r != nil {
		emitted = r.emitted.Load()
	}

	return InternalMetrics{
		Errors:  emitErrors.Load(),
		Dropped: emitDropped.Load(),
		Emitted: emitted,
	}
}

// ResetInternalMetrics resets the counters (useful for testing).
func ResetInternalMetrics() {
	emitErrors.Store(0)
	emitDropped.Store(0)

	if r := globalRegistry.Load(); r != nil {
		r.emitted.Store(0)
	}
}
