package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/resilience"
	"github.com/voxchain/voxchain/telemetry"
)

// ProviderChain walks an ordered list of providers until one of them
// produces audio. Every provider sits behind its own circuit breaker,
// so a provider that keeps failing is skipped for a while instead of
// slowing every request down.
//
// The chain is safe for concurrent use. It never mutates the request
// beyond the whitespace trimming done by Validate.
type ProviderChain struct {
	registry *Registry
	logger   core.Logger
	clock    clock.Clock
}

// ChainOption configures a ProviderChain during construction.
type ChainOption func(*chainOptions)

type chainOptions struct {
	registry *Registry
	entries  []Entry
	logger   core.Logger
	clock    clock.Clock
}

// WithRegistry supplies a pre-built provider registry.
func WithRegistry(reg *Registry) ChainOption {
	return func(o *chainOptions) {
		o.registry = reg
	}
}

// WithEntries supplies provider entries from which the chain builds
// its own registry. Ignored when WithRegistry is also given.
func WithEntries(entries ...Entry) ChainOption {
	return func(o *chainOptions) {
		o.entries = append(o.entries, entries...)
	}
}

// WithChainLogger sets the logger for chain decisions. The chain logs
// under the "voxchain/tts" component.
func WithChainLogger(logger core.Logger) ChainOption {
	return func(o *chainOptions) {
		o.logger = logger
	}
}

// WithChainClock overrides the clock used for attempt timing. Tests
// inject a mock clock here.
func WithChainClock(c clock.Clock) ChainOption {
	return func(o *chainOptions) {
		o.clock = c
	}
}

// NewProviderChain builds a chain from the given options. At least one
// provider entry (or a non-empty registry) is required; a chain with
// nothing to call is a configuration error, not a runtime surprise.
func NewProviderChain(opts ...ChainOption) (*ProviderChain, error) {
	options := &chainOptions{}
	for _, opt := range opts {
		opt(options)
	}

	reg := options.registry
	if reg == nil {
		var err error
		reg, err = NewRegistry(options.entries)
		if err != nil {
			return nil, err
		}
	}
	if reg.Len() == 0 {
		return nil, &core.SynthesisError{
			Op:      "NewProviderChain",
			Kind:    "config",
			Message: "at least one provider is required",
			Err:     core.ErrNoProvidersAvailable,
		}
	}

	logger := options.logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if cl, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cl.WithComponent("voxchain/tts")
	}

	clk := options.clock
	if clk == nil {
		clk = clock.New()
	}

	chain := &ProviderChain{
		registry: reg,
		logger:   logger,
		clock:    clk,
	}

	chain.logger.Info("Provider chain created", map[string]interface{}{
		"operation": "chain_created",
		"providers": reg.Names(),
	})
	return chain, nil
}

// Synthesize converts text to speech, trying providers in order until
// one succeeds.
//
// The provider order is the request's fallback chain when given,
// otherwise the enabled providers sorted by priority. A preferred
// provider is moved to the front of whichever list applies. Providers
// whose circuit breaker is open are skipped without being called.
//
// A validation failure or a context cancellation returns a nil result
// and an error. Exhausting every provider is not an error at this
// level: the returned result carries Success=false, a summary message
// and the per-provider attempt records.
func (c *ProviderChain) Synthesize(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
	requestID := uuid.New().String()

	if err := req.Validate(); err != nil {
		c.logger.Warn("Rejected invalid synthesis request", map[string]interface{}{
			"operation":  "tts_validate",
			"request_id": requestID,
			"error":      err.Error(),
		})
		telemetry.Counter("tts.chain.requests", "status", "invalid")
		return nil, err
	}

	c.logger.Info("Synthesis request received", map[string]interface{}{
		"operation":          "tts_synthesize",
		"request_id":         requestID,
		"text_length":        len(req.Text),
		"voice":              req.Voice,
		"preferred_provider": req.PreferredProvider,
		"fallback_chain":     req.FallbackChain,
		"agent":              req.AgentName,
	})

	candidates := c.selectCandidates(requestID, req)
	if len(candidates) == 0 {
		c.logger.Error("No providers available for synthesis", map[string]interface{}{
			"operation":  "tts_no_providers",
			"request_id": requestID,
		})
		telemetry.Counter("tts.chain.requests", "status", "no_providers")
		return &core.SynthesisResult{
			Success:      false,
			ErrorMessage: "No providers available",
			Attempts:     []core.AttemptRecord{},
		}, nil
	}

	attempts := make([]core.AttemptRecord, 0, len(candidates))

	for _, entry := range candidates {
		if entry.Breaker.Status() == resilience.StatusOpen {
			entry.Breaker.RecordRejection()
			attempts = append(attempts, core.AttemptRecord{
				Provider: entry.Name,
				Error:    "circuit open",
				Duration: 0,
			})
			c.logger.Info("Provider skipped, circuit open", map[string]interface{}{
				"operation":  "tts_provider_skipped",
				"request_id": requestID,
				"provider":   entry.Name,
			})
			continue
		}

		start := c.clock.Now()
		result, err := entry.Provider.Synthesize(ctx, req)
		elapsed := c.clock.Now().Sub(start)

		if err != nil {
			// The request context decides what counts as cancellation.
			// A deadline raised inside a provider while the request is
			// still live fails over like any other error.
			if ctx.Err() != nil {
				c.logger.Warn("Synthesis canceled", map[string]interface{}{
					"operation":  "tts_canceled",
					"request_id": requestID,
					"provider":   entry.Name,
				})
				telemetry.Counter("tts.chain.requests", "status", "canceled")
				if !core.IsCancellation(err) {
					err = &core.SynthesisError{
						Op:      "chain.Synthesize",
						Kind:    "cancellation",
						Message: err.Error(),
						Err:     ctx.Err(),
					}
				}
				return nil, err
			}
			entry.Breaker.RecordFailure()
			attempts = append(attempts, core.AttemptRecord{
				Provider: entry.Name,
				Error:    err.Error(),
				Duration: elapsed,
			})
			c.logger.Warn("Provider synthesis failed, trying next", map[string]interface{}{
				"operation":   "tts_failover",
				"request_id":  requestID,
				"provider":    entry.Name,
				"error":       err.Error(),
				"duration_ms": elapsed.Milliseconds(),
			})
			telemetry.Counter("tts.chain.failover", "provider", entry.Name)
			continue
		}

		if result != nil && result.Success && result.Audio != nil {
			entry.Breaker.RecordSuccess()
			out := *result
			out.ProviderUsed = entry.Name
			out.Attempts = attempts
			c.logger.Info("Synthesis completed", map[string]interface{}{
				"operation":     "tts_synthesize_complete",
				"request_id":    requestID,
				"provider":      entry.Name,
				"generation_ms": out.GenerationTime.Milliseconds(),
				"failed_before": len(attempts),
			})
			telemetry.Counter("tts.chain.requests", "status", "success", "provider", entry.Name)
			telemetry.Histogram("tts.chain.duration_ms", float64(elapsed.Milliseconds()), "provider", entry.Name)
			return &out, nil
		}

		message := "no audio"
		if result != nil && result.ErrorMessage != "" {
			message = result.ErrorMessage
		}
		entry.Breaker.RecordFailure()
		attempts = append(attempts, core.AttemptRecord{
			Provider: entry.Name,
			Error:    message,
			Duration: elapsed,
		})
		c.logger.Warn("Provider synthesis failed, trying next", map[string]interface{}{
			"operation":   "tts_failover",
			"request_id":  requestID,
			"provider":    entry.Name,
			"error":       message,
			"duration_ms": elapsed.Milliseconds(),
		})
		telemetry.Counter("tts.chain.failover", "provider", entry.Name)
	}

	var total time.Duration
	for _, a := range attempts {
		total += a.Duration
	}
	c.logger.Error("All providers exhausted", map[string]interface{}{
		"operation":  "tts_chain_exhausted",
		"request_id": requestID,
		"attempts":   len(attempts),
		"total_ms":   total.Milliseconds(),
	})
	telemetry.Counter("tts.chain.requests", "status", "exhausted")
	return &core.SynthesisResult{
		Success:        false,
		ErrorMessage:   fmt.Sprintf("All %d providers failed", len(attempts)),
		GenerationTime: total,
		Attempts:       attempts,
	}, nil
}

// selectCandidates resolves the provider order for one request.
//
// An explicit fallback chain wins when at least one of its entries
// names a known, enabled provider. Unknown or disabled entries are
// dropped with a warning; they never count as attempts. When the
// chain is empty or filters down to nothing, the registry's default
// priority order applies. The preferred provider, when present in the
// resolved list, moves to the front without reordering the rest.
func (c *ProviderChain) selectCandidates(requestID string, req *core.SynthesisRequest) []*Entry {
	var candidates []*Entry

	for _, name := range req.FallbackChain {
		entry, ok := c.registry.Lookup(name)
		if !ok || !entry.Enabled {
			c.logger.Warn("Fallback chain entry skipped", map[string]interface{}{
				"operation":  "tts_fallback_skipped",
				"request_id": requestID,
				"provider":   name,
				"known":      ok,
			})
			continue
		}
		candidates = append(candidates, entry)
	}

	if len(candidates) == 0 {
		candidates = c.registry.DefaultOrder()
	}

	if req.PreferredProvider != "" {
		idx := -1
		for i, entry := range candidates {
			if strings.EqualFold(entry.Name, req.PreferredProvider) {
				idx = i
				break
			}
		}
		switch {
		case idx > 0:
			preferred := candidates[idx]
			candidates = append(candidates[:idx], candidates[idx+1:]...)
			candidates = append([]*Entry{preferred}, candidates...)
		case idx < 0:
			c.logger.Warn("Preferred provider not among candidates", map[string]interface{}{
				"operation":  "tts_preferred_missing",
				"request_id": requestID,
				"provider":   req.PreferredProvider,
			})
		}
	}

	return candidates
}

// ProviderStatusSnapshot is a point-in-time view of one registered
// provider, combining its configuration with its breaker state.
type ProviderStatusSnapshot struct {
	Name                string    `json:"name"`
	Priority            int       `json:"priority"`
	Enabled             bool      `json:"enabled"`
	CircuitStatus       string    `json:"circuit_status"`
	OpenUntil           time.Time `json:"open_until,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// ProvidersStatus reports a snapshot of every registered provider,
// disabled ones included. Safe to call concurrently with Synthesize.
func (c *ProviderChain) ProvidersStatus() []ProviderStatusSnapshot {
	entries := c.registry.All()
	out := make([]ProviderStatusSnapshot, 0, len(entries))
	for _, entry := range entries {
		snap := entry.Breaker.Snapshot()
		out = append(out, ProviderStatusSnapshot{
			Name:                entry.Name,
			Priority:            entry.Priority,
			Enabled:             entry.Enabled,
			CircuitStatus:       snap.StatusText,
			OpenUntil:           snap.OpenUntil,
			ConsecutiveFailures: snap.ConsecutiveFailures,
		})
	}
	return out
}

// ProviderInfos queries each registered provider for its own view of
// availability. Unlike ProvidersStatus this reaches into the
// providers, so it may reflect key-pool state or other internals.
func (c *ProviderChain) ProviderInfos() []core.ProviderInfo {
	entries := c.registry.All()
	out := make([]core.ProviderInfo, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Provider.Info())
	}
	return out
}
