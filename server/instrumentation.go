package server

import "github.com/voxchain/voxchain/telemetry"

func init() {
	// ONLY declare metrics, don't initialize
	telemetry.DeclareMetrics("server", telemetry.ModuleConfig{
		Metrics: []telemetry.MetricDefinition{
			{
				Name:   "tts.http.requests",
				Type:   "counter",
				Help:   "HTTP requests by route, method and status code",
				Labels: []string{"route", "method", "status"},
			},
			{
				Name:    "tts.http.duration_ms",
				Type:    "histogram",
				Help:    "HTTP request wall time",
				Labels:  []string{"route"},
				Unit:    "ms",
				Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
			},
		},
	})
}
