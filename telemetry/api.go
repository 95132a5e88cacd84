package telemetry

import "time"

// Counter increments a counter metric by 1.
// Labels are key-value pairs:
//
//	Counter("tts.chain.requests", "status", "success")
func Counter(name string, labels ...string) {
	Emit(name, 1, labels...)
}

// Histogram records a value in a distribution. Use for latencies,
// payload sizes, queue depths.
func Histogram(name string, value float64, labels ...string) {
	Emit(name, value, labels...)
}

// Gauge sets the current value of a gauge metric. The value is held
// until the next call with the same label set and reported at every
// collection.
func Gauge(name string, value float64, labels ...string) {
	Emit(name, value, labels...)
}

// Duration records elapsed time since startTime in milliseconds.
//
//	start := time.Now()
//	defer Duration("tts.chain.duration_ms", start, "provider", name)
func Duration(name string, startTime time.Time, labels ...string) {
	Emit(name, float64(time.Since(startTime).Milliseconds()), labels...)
}
