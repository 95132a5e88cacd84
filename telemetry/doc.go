// Package telemetry provides metrics and tracing for voxchain services.
//
// The package follows a declare-then-initialize lifecycle. Packages
// declare their metrics from init functions:
//
//	func init() {
//	    telemetry.DeclareMetrics("tts", telemetry.ModuleConfig{
//	        Metrics: []telemetry.MetricDefinition{
//	            {Name: "tts.chain.requests", Type: "counter"},
//	        },
//	    })
//	}
//
// and the binary activates the system once at startup:
//
//	if err := telemetry.Initialize(cfg); err != nil {
//	    logger.Warn("Telemetry disabled", ...)
//	}
//	defer telemetry.Shutdown(context.Background())
//
// Initialize creates the OpenTelemetry exporters and pre-registers
// every declared instrument with its help text, unit, and histogram
// buckets. Before Initialize is called, and after it fails, the Emit
// functions are silent no-ops, so libraries emit unconditionally.
//
// Emission is guarded two ways: a cardinality limiter collapses
// unbounded label values to "other", and a circuit breaker sheds
// metrics when the collector is unhealthy. Telemetry problems degrade
// to missing metrics, never to synthesis failures.
package telemetry
