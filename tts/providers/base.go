// Package providers holds plumbing shared by the synthesis backends:
// a traced HTTP client, span helpers and the failure-result shape the
// chain expects from every adapter.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/voxchain/voxchain/core"
)

// BaseClient provides common functionality for synthesis providers
type BaseClient struct {
	// HTTP client with timeout; the transport propagates trace context
	HTTPClient *http.Client

	// Logger for debugging
	Logger core.Logger

	// Telemetry for distributed tracing (optional)
	Telemetry core.Telemetry

	// Clock drives generation timing; tests inject a mock
	Clock clock.Clock
}

// NewBaseClient creates a new base client with defaults
func NewBaseClient(timeout time.Duration, logger core.Logger) *BaseClient {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}

	return &BaseClient{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Logger: logger,
		Clock:  clock.New(),
	}
}

// StartSpan opens a tracing span when telemetry is configured and is a
// no-op otherwise.
func (b *BaseClient) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	if b.Telemetry == nil {
		return ctx, &core.NoOpSpan{}
	}
	return b.Telemetry.StartSpan(ctx, name)
}

// LogRequest logs an outgoing synthesis request
func (b *BaseClient) LogRequest(provider, voice string, textLength int) {
	b.Logger.Info("Synthesis request initiated", map[string]interface{}{
		"operation":   "synthesis_request",
		"provider":    provider,
		"voice":       voice,
		"text_length": textLength,
	})
}

// LogSynthesized logs a completed synthesis
func (b *BaseClient) LogSynthesized(provider string, audioBytes int, duration time.Duration) {
	b.Logger.Info("Synthesis response received", map[string]interface{}{
		"operation":   "synthesis_response",
		"provider":    provider,
		"audio_bytes": audioBytes,
		"duration_ms": duration.Milliseconds(),
		"status":      "success",
	})
}

// FailureResult builds the failure value adapters hand back to the
// chain on expected errors. The provider name is always set so attempt
// records stay attributable; the message must be non-empty.
func FailureResult(provider, message string) *core.SynthesisResult {
	return &core.SynthesisResult{
		Success:      false,
		ProviderUsed: provider,
		ErrorMessage: message,
	}
}
