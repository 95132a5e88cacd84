package resilience

import "github.com/voxchain/voxchain/telemetry"

func init() {
	// ONLY declare metrics, don't initialize
	telemetry.DeclareMetrics("resilience", telemetry.ModuleConfig{
		Metrics: []telemetry.MetricDefinition{
			{
				Name:   "tts.breaker.outcomes",
				Type:   "counter",
				Help:   "Outcomes recorded by circuit breakers",
				Labels: []string{"name", "outcome"},
			},
			{
				Name:   "tts.breaker.failures",
				Type:   "counter",
				Help:   "Failures recorded by circuit breakers",
				Labels: []string{"name", "error_type"},
			},
			{
				Name:   "tts.breaker.state_changes",
				Type:   "counter",
				Help:   "Circuit breaker state transitions",
				Labels: []string{"name", "from_state", "to_state"},
			},
			{
				Name:   "tts.breaker.current_state",
				Type:   "gauge",
				Help:   "Current circuit breaker state (0=closed, 0.5=half-open, 1=open)",
				Labels: []string{"name"},
			},
			{
				Name:   "tts.breaker.rejected",
				Type:   "counter",
				Help:   "Attempts skipped because a circuit was open",
				Labels: []string{"name"},
			},
		},
	})
}
