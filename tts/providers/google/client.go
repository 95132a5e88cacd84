// Package google implements the Cloud Text-to-Speech provider with
// API key rotation. The chain sees one provider; internally the client
// walks a pool of keys, cooling down rate-limited and quota-exhausted
// keys and retiring unauthorized ones.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/telemetry"
	"github.com/voxchain/voxchain/tts"
	"github.com/voxchain/voxchain/tts/providers"
)

const (
	// ProviderName is the registry name of this provider
	ProviderName = "google"

	// DefaultEndpoint is the Cloud Text-to-Speech synthesize endpoint
	DefaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"
)

// Key is one resolved API credential: the symbolic name it was looked
// up under (safe to log) and its secret value (never logged).
type Key struct {
	Name  string
	Value string
}

// Client implements core.Provider for Google Cloud TTS. One synthesize
// call loops over the key pool: pick a key, POST, classify the
// response, and either return or mark the key and try the next one.
type Client struct {
	*providers.BaseClient
	name     string
	endpoint string
	pool     *KeyPool
	cfg      core.GoogleConfig
}

// NewClient creates a multi-key Cloud TTS client. An empty endpoint
// selects the production API; tests point it at a local server.
func NewClient(cfg core.GoogleConfig, keys []Key, endpoint string, logger core.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	base := providers.NewBaseClient(cfg.Timeout, logger)

	return &Client{
		BaseClient: base,
		name:       ProviderName,
		endpoint:   endpoint,
		pool:       NewKeyPool(keys, cfg.RateLimitCooldown, cfg.QuotaCooldown, base.Clock, logger),
		cfg:        cfg,
	}
}

// Name returns the provider's registry name.
func (c *Client) Name() string {
	return c.name
}

// Synthesize converts text to speech through the Cloud TTS REST API.
//
// The loop is bounded by |keys|+1 iterations: each pass either returns
// or marks the current key unusable, and the extra pass lets a key
// whose cooldown expired mid-request be retried. Key exhaustion is an
// expected failure value, not a Go error; only cancellation and
// request-building faults surface as errors.
func (c *Client) Synthesize(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
	ctx, span := c.StartSpan(ctx, "tts.google.synthesize")
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

	body, err := json.Marshal(c.buildRequest(req, voice))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to marshal synthesize request: %w", err)
	}

	for attempt := 0; attempt <= c.pool.Len(); attempt++ {
		key, ok := c.pool.NextAvailable()
		if !ok {
			break
		}

		result, retry, err := c.tryKey(ctx, key, body)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if retry {
			continue
		}

		if result.Success {
			c.pool.RecordSuccess(key)
			result.GenerationTime = c.Clock.Now().Sub(start)
			c.LogSynthesized(c.name, len(result.Audio.Data), result.GenerationTime)
			telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "success")
			span.SetAttribute("tts.audio_bytes", len(result.Audio.Data))
		} else {
			telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "failure")
		}
		return result, nil
	}

	c.Logger.Warn("All API keys exhausted", map[string]interface{}{
		"operation": "keys_exhausted",
		"provider":  c.name,
		"keys":      c.pool.Len(),
	})
	telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "keys_exhausted")
	return providers.FailureResult(c.name, "all API keys exhausted"), nil
}

// tryKey performs one POST with one key and classifies the outcome.
// retry=true means the key was marked and the caller should move on to
// the next one; a non-nil error is terminal for the whole call.
func (c *Client) tryKey(ctx context.Context, key *apiKey, body []byte) (result *core.SynthesisResult, retry bool, err error) {
	endpoint := c.endpoint + "?key=" + url.QueryEscape(key.secret)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		// A live request context means this is a transport fault local
		// to the key, not a caller cancellation.
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("synthesis canceled: %w", ctx.Err())
		}
		c.Logger.Warn("Cloud TTS request failed, trying next key", map[string]interface{}{
			"operation": "key_transport_error",
			"provider":  c.name,
			"key":       key.displayName,
			"error":     err.Error(),
		})
		c.pool.MarkTemporaryError(key)
		return nil, true, nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("synthesis canceled: %w", ctx.Err())
		}
		c.pool.MarkTemporaryError(key)
		return nil, true, nil
	}

	if resp.StatusCode == http.StatusOK {
		var sr SynthesizeResponse
		if jsonErr := json.Unmarshal(respBody, &sr); jsonErr != nil || sr.AudioContent == "" {
			// A 200 without audio is a malformed body; retrying other
			// keys cannot fix it.
			c.Logger.Error("Cloud TTS returned 200 without audioContent", map[string]interface{}{
				"operation": "malformed_response",
				"provider":  c.name,
				"key":       key.displayName,
			})
			return providers.FailureResult(c.name, "response missing audioContent"), false, nil
		}
		audio, decodeErr := base64.StdEncoding.DecodeString(sr.AudioContent)
		if decodeErr != nil {
			return providers.FailureResult(c.name, "audioContent is not valid base64"), false, nil
		}
		return &core.SynthesisResult{
			Success:      true,
			Audio:        core.MemoryAudio(audio, c.contentType()),
			ProviderUsed: c.name,
		}, false, nil
	}

	c.logStatus(resp.StatusCode, respBody, key)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		c.pool.MarkRateLimited(key)
	case http.StatusForbidden:
		c.pool.MarkQuotaExceeded(key)
	case http.StatusUnauthorized:
		c.pool.MarkInvalid(key)
	default:
		c.pool.MarkTemporaryError(key)
	}
	return nil, true, nil
}

func (c *Client) buildRequest(req *core.SynthesisRequest, voice string) *SynthesizeRequest {
	rate := c.cfg.SpeakingRate
	if req.Rate != 0 {
		rate = tts.RateMultiplier(float64(req.Rate))
	}
	pitch := c.cfg.Pitch
	if req.Pitch != 0 {
		pitch = tts.PitchSemitones(float64(req.Pitch))
	}

	return &SynthesizeRequest{
		Input: SynthesisInput{Text: req.Text},
		Voice: VoiceSelection{
			LanguageCode: tts.VoiceLanguage(voice),
			Name:         voice,
		},
		AudioConfig: AudioConfig{
			AudioEncoding:   c.cfg.AudioEncoding,
			SpeakingRate:    rate,
			Pitch:           pitch,
			VolumeGainDb:    c.cfg.VolumeGainDb,
			SampleRateHertz: c.cfg.SampleRateHertz,
		},
	}
}

func (c *Client) contentType() string {
	if c.cfg.AudioEncoding == "MP3" {
		return core.ContentTypeMP3
	}
	return core.ContentTypeWAV
}

func (c *Client) logStatus(status int, body []byte, key *apiKey) {
	fields := map[string]interface{}{
		"operation":   "synthesis_api_error",
		"provider":    c.name,
		"key":         key.displayName,
		"status_code": status,
	}
	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		fields["api_error"] = apiErr.Error.Message
	}
	c.Logger.Warn("Cloud TTS request rejected", fields)
}

// Info reports pool-level availability: Available while any key can
// serve, Degraded while all keys are cooling down, Unavailable with no
// keys at all.
func (c *Client) Info() core.ProviderInfo {
	return core.ProviderInfo{
		Name:            c.name,
		Status:          c.pool.Status(),
		LastSuccessTime: c.pool.LastSuccess(),
		SupportedVoices: []string{c.cfg.Voice},
	}
}

func keyStateMetric(state KeyState) {
	telemetry.Counter("tts.keys.state_changes", "provider", ProviderName, "state", state.String())
}
