package telemetry

import (
	"time"

	"github.com/voxchain/voxchain/core"
)

// Config configures the telemetry system.
type Config struct {
	ServiceName string
	Endpoint    string // OTLP/gRPC collector endpoint, host:port
	Insecure    bool   // plaintext OTLP, for local and cluster-internal collectors
	UseStdout   bool   // print traces to stdout instead of exporting

	SamplingRate float64

	// Cardinality control
	CardinalityLimit  int
	CardinalityLimits map[string]int // per-label value limits

	CircuitBreaker CircuitConfig
}

// Profile names a pre-configured telemetry setup.
type Profile string

const (
	ProfileDevelopment Profile = "development"
	ProfileStaging     Profile = "staging"
	ProfileProduction  Profile = "production"
)

// Profiles contains the pre-configured telemetry profiles.
var Profiles = map[Profile]Config{
	ProfileDevelopment: {
		Endpoint:         "localhost:4317",
		Insecure:         true,
		SamplingRate:     1.0,
		CardinalityLimit: 50000,
		CircuitBreaker:   CircuitConfig{Enabled: false},
	},
	ProfileStaging: {
		Endpoint:         "otel-collector.staging:4317",
		Insecure:         true,
		SamplingRate:     0.1,
		CardinalityLimit: 20000,
		CircuitBreaker: CircuitConfig{
			Enabled:      true,
			MaxFailures:  10,
			RecoveryTime: 15 * time.Second,
		},
	},
	ProfileProduction: {
		Endpoint:         "otel-collector.prod:4317",
		SamplingRate:     0.01,
		CardinalityLimit: 10000,
		CircuitBreaker: CircuitConfig{
			Enabled:      true,
			MaxFailures:  10,
			RecoveryTime: 30 * time.Second,
			HalfOpenMax:  5,
		},
	},
}

// UseProfile returns the configuration for a profile, defaulting to
// development for unknown names.
func UseProfile(profile Profile) Config {
	if config, ok := Profiles[profile]; ok {
		return config
	}
	return Profiles[ProfileDevelopment]
}

// WithOverrides applies non-zero fields of overrides on top of c.
func (c Config) WithOverrides(overrides Config) Config {
	if overrides.ServiceName != "" {
		c.ServiceName = overrides.ServiceName
	}
	if overrides.Endpoint != "" {
		c.Endpoint = overrides.Endpoint
	}
	if overrides.Insecure {
		c.Insecure = overrides.Insecure
	}
	if overrides.UseStdout {
		c.UseStdout = overrides.UseStdout
	}
	if overrides.SamplingRate > 0 {
		c.SamplingRate = overrides.SamplingRate
	}
	if overrides.CardinalityLimit > 0 {
		c.CardinalityLimit = overrides.CardinalityLimit
	}
	if overrides.CardinalityLimits != nil {
		c.CardinalityLimits = overrides.CardinalityLimits
	}
	if overrides.CircuitBreaker.Enabled {
		c.CircuitBreaker = overrides.CircuitBreaker
	}
	return c
}

// FromCoreConfig translates the service-level telemetry settings.
// Development mode with no collector endpoint falls back to stdout
// traces so local runs still show spans.
func FromCoreConfig(cfg core.TelemetryConfig, development bool) Config {
	out := Config{
		ServiceName:  cfg.ServiceName,
		Endpoint:     cfg.Endpoint,
		Insecure:     cfg.Insecure,
		SamplingRate: cfg.SamplingRate,
		CircuitBreaker: CircuitConfig{
			Enabled:      !development,
			MaxFailures:  10,
			RecoveryTime: 30 * time.Second,
			HalfOpenMax:  5,
		},
	}
	if development && cfg.Endpoint == "" {
		out.UseStdout = true
	}
	return out
}
