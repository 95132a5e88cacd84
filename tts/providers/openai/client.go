// Package openai implements the OpenAI speech endpoint provider using
// the official client library. It is a single-key provider; key-level
// fault handling stays with the chain's circuit breaker.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/telemetry"
	"github.com/voxchain/voxchain/tts"
	"github.com/voxchain/voxchain/tts/providers"
)

// ProviderName is the registry name of this provider
const ProviderName = "openai"

// SupportedVoices lists the voices the speech endpoint accepts.
var SupportedVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// Client implements core.Provider for OpenAI text-to-speech.
type Client struct {
	*providers.BaseClient
	name   string
	api    *goopenai.Client
	apiKey string
	cfg    core.OpenAIConfig

	mu          sync.Mutex
	lastSuccess time.Time
}

// NewClient creates an OpenAI TTS client from a resolved API key. A
// base URL in the config points the client at a proxy or a test
// server.
func NewClient(cfg core.OpenAIConfig, apiKey string, logger core.Logger) *Client {
	base := providers.NewBaseClient(cfg.Timeout, logger)

	c := &Client{
		BaseClient: base,
		name:       ProviderName,
		apiKey:     apiKey,
		cfg:        cfg,
	}
	c.rebuildAPI(base.HTTPClient)
	return c
}

// SetHTTPClient swaps the underlying HTTP client and rebinds the API
// client to it. Used for dependency injection.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.HTTPClient = hc
	c.rebuildAPI(hc)
}

func (c *Client) rebuildAPI(hc *http.Client) {
	apiCfg := goopenai.DefaultConfig(c.apiKey)
	if c.cfg.BaseURL != "" {
		apiCfg.BaseURL = c.cfg.BaseURL
	}
	apiCfg.HTTPClient = hc
	c.api = goopenai.NewClientWithConfig(apiCfg)
}

// Name returns the provider's registry name.
func (c *Client) Name() string {
	return c.name
}

// Synthesize converts text to speech through the speech endpoint.
// Expected API failures (auth, rate limit, server errors) come back as
// failure values; only cancellation surfaces as a Go error.
func (c *Client) Synthesize(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
	ctx, span := c.StartSpan(ctx, "tts.openai.synthesize")
	defer span.End()
	span.SetAttribute("tts.provider", c.name)
	span.SetAttribute("tts.text_length", len(req.Text))

	voice := req.Voice
	if voice == "" {
		voice = c.cfg.Voice
	}
	span.SetAttribute("tts.voice", voice)
	c.LogRequest(c.name, voice, len(req.Text))
	start := c.Clock.Now()

	speechReq := goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(c.cfg.Model),
		Input:          req.Text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	}
	// Zero means "not set"; the endpoint then uses its default speed.
	if req.Rate != 0 {
		speechReq.Speed = tts.RateMultiplier(float64(req.Rate))
	}

	resp, err := c.api.CreateSpeech(ctx, speechReq)
	if err != nil {
		if ctx.Err() != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("synthesis canceled: %w", ctx.Err())
		}
		message := describeAPIError(err)
		c.Logger.Warn("Speech request failed", map[string]interface{}{
			"operation": "synthesis_api_error",
			"provider":  c.name,
			"error":     message,
		})
		telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "failure")
		span.RecordError(err)
		return providers.FailureResult(c.name, message), nil
	}
	defer func() {
		_ = resp.Close()
	}()

	audio, err := io.ReadAll(resp)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("synthesis canceled: %w", ctx.Err())
		}
		telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "failure")
		return providers.FailureResult(c.name, fmt.Sprintf("reading audio stream: %v", err)), nil
	}
	if len(audio) == 0 {
		telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "failure")
		return providers.FailureResult(c.name, "empty audio stream"), nil
	}

	elapsed := c.Clock.Now().Sub(start)
	c.mu.Lock()
	c.lastSuccess = c.Clock.Now()
	c.mu.Unlock()

	c.LogSynthesized(c.name, len(audio), elapsed)
	telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "success")
	span.SetAttribute("tts.audio_bytes", len(audio))

	return &core.SynthesisResult{
		Success:        true,
		Audio:          core.MemoryAudio(audio, core.ContentTypeMP3),
		ProviderUsed:   c.name,
		GenerationTime: elapsed,
	}, nil
}

// Info reports this provider as available; a constructed client holds
// a resolved key and the endpoint has no queryable health surface.
func (c *Client) Info() core.ProviderInfo {
	c.mu.Lock()
	last := c.lastSuccess
	c.mu.Unlock()

	return core.ProviderInfo{
		Name:            c.name,
		Status:          core.StatusAvailable,
		LastSuccessTime: last,
		SupportedVoices: SupportedVoices,
	}
}

// describeAPIError turns client library errors into the short messages
// carried by attempt records.
func describeAPIError(err error) string {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return "invalid or missing API key"
		case http.StatusTooManyRequests:
			return "rate limit exceeded"
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Sprintf("service temporarily unavailable (status %d)", apiErr.HTTPStatusCode)
		default:
			return fmt.Sprintf("API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
	}
	return err.Error()
}
