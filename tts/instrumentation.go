package tts

import "github.com/voxchain/voxchain/telemetry"

func init() {
	// ONLY declare metrics, don't initialize
	telemetry.DeclareMetrics("tts", telemetry.ModuleConfig{
		Metrics: []telemetry.MetricDefinition{
			{
				Name:   "tts.chain.requests",
				Type:   "counter",
				Help:   "Synthesis requests by terminal status",
				Labels: []string{"status", "provider"},
			},
			{
				Name:   "tts.chain.failover",
				Type:   "counter",
				Help:   "Failed provider attempts that fell through to the next provider",
				Labels: []string{"provider"},
			},
			{
				Name:    "tts.chain.duration_ms",
				Type:    "histogram",
				Help:    "Wall time of the winning provider attempt",
				Labels:  []string{"provider"},
				Unit:    "ms",
				Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
			},
			{
				Name:   "tts.provider.requests",
				Type:   "counter",
				Help:   "Upstream provider calls by outcome",
				Labels: []string{"provider", "outcome"},
			},
			{
				Name:   "tts.keys.state_changes",
				Type:   "counter",
				Help:   "API key state transitions in multi-key pools",
				Labels: []string{"provider", "state"},
			},
		},
	})
}
