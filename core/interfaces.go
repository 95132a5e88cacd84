package core

import (
	"context"
)

// Logger interface - minimal logging interface
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})
}

// ComponentAwareLogger is implemented by loggers that can attribute log
// lines to a library component (e.g. "voxchain/tts"). Components wrap
// their injected logger with WithComponent when available.
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

// Telemetry interface - optional telemetry support
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span represents a telemetry span
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// Provider is the contract every speech synthesis backend implements.
//
// Synthesize returns an unsuccessful SynthesisResult (Success=false,
// ProviderUsed set, ErrorMessage non-empty) for expected failures such
// as upstream rejections or exhausted API keys. The error return is
// reserved for faults (panics turned errors, transport breakage) and
// for context cancellation, which must propagate unwrapped enough for
// errors.Is(err, context.Canceled) to hold.
type Provider interface {
	// Name returns the provider's unique name. Lookup is case-insensitive.
	Name() string

	// Synthesize converts the request's text to audio.
	Synthesize(ctx context.Context, req *SynthesisRequest) (*SynthesisResult, error)

	// Info reports current availability without performing synthesis.
	Info() ProviderInfo
}

// Default no-op implementations

// NoOpLogger provides a no-op logger implementation
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
func (n *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

// NoOpTelemetry provides a no-op telemetry implementation
type NoOpTelemetry struct{}

func (n *NoOpTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

func (n *NoOpTelemetry) RecordMetric(name string, value float64, labels map[string]string) {}

// NoOpSpan provides a no-op span implementation
type NoOpSpan struct{}

func (n *NoOpSpan) End()                                       {}
func (n *NoOpSpan) SetAttribute(key string, value interface{}) {}
func (n *NoOpSpan) RecordError(err error)                      {}
