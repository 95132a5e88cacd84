package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxTextLength is the maximum number of characters (runes) accepted in
// a synthesis request after surrounding whitespace is trimmed.
const MaxTextLength = 10000

// Common audio content types produced by providers
const (
	ContentTypeMP3 = "audio/mpeg"
	ContentTypeWAV = "audio/wav"
)

// validate is the shared validator instance for request and config checks
var validate = validator.New()

// SynthesisRequest describes one text-to-speech request.
// Rate and Pitch are relative adjustments in the range [-100, 100];
// zero means "use the provider's configured default".
type SynthesisRequest struct {
	Text  string `json:"text" validate:"required"`
	Voice string `json:"voice,omitempty"`
	Rate  int    `json:"rate,omitempty" validate:"gte=-100,lte=100"`
	Pitch int    `json:"pitch,omitempty" validate:"gte=-100,lte=100"`

	// PreferredProvider is hoisted to the front of the candidate order
	// when it matches a known provider (case-insensitive).
	PreferredProvider string `json:"preferred_provider,omitempty"`

	// FallbackChain replaces the default candidate order entirely.
	// Unknown or disabled names are skipped.
	FallbackChain []string `json:"fallback_chain,omitempty"`

	// Caller attribution, carried into logs only.
	AgentName       string `json:"agent_name,omitempty"`
	AgentInstanceID string `json:"agent_instance_id,omitempty"`
}

// Validate normalizes and checks the request. The text is trimmed in
// place. Returns a SynthesisError wrapping ErrInvalidRequest (or
// ErrTextTooLong) so no provider is ever invoked with a bad request.
func (r *SynthesisRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)

	if r.Text == "" {
		return &SynthesisError{
			Op:      "SynthesisRequest.Validate",
			Kind:    "request",
			Message: "text is required",
			Err:     ErrInvalidRequest,
		}
	}

	if n := utf8.RuneCountInString(r.Text); n > MaxTextLength {
		return &SynthesisError{
			Op:      "SynthesisRequest.Validate",
			Kind:    "request",
			Message: fmt.Sprintf("text length %d exceeds maximum of %d characters", n, MaxTextLength),
			Err:     ErrTextTooLong,
		}
	}

	if err := validate.Struct(r); err != nil {
		return &SynthesisError{
			Op:      "SynthesisRequest.Validate",
			Kind:    "request",
			Message: fmt.Sprintf("invalid synthesis request: %v", err),
			Err:     ErrInvalidRequest,
		}
	}

	return nil
}

// AudioData is the synthesized audio payload. Exactly one of Data or
// Path is set: providers that keep audio in memory fill Data, providers
// that write to disk fill Path.
type AudioData struct {
	Data        []byte `json:"-"`
	Path        string `json:"path,omitempty"`
	ContentType string `json:"content_type"`
}

// MemoryAudio wraps in-memory audio bytes
func MemoryAudio(data []byte, contentType string) *AudioData {
	return &AudioData{Data: data, ContentType: contentType}
}

// FileAudio references audio written to the local filesystem
func FileAudio(path, contentType string) *AudioData {
	return &AudioData{Path: path, ContentType: contentType}
}

// InMemory reports whether the audio payload is held in memory
func (a *AudioData) InMemory() bool {
	return a != nil && a.Path == ""
}

// AttemptRecord captures one failed or skipped provider attempt.
// Skips caused by an open circuit carry a zero duration.
type AttemptRecord struct {
	Provider string        `json:"provider"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration_ns"`
}

// SynthesisResult is the outcome of a synthesis request.
// On success, Audio is set and ErrorMessage is empty. On failure,
// ErrorMessage explains why and Audio is nil. Attempts lists every
// provider tried before the final outcome, excluding the winner.
type SynthesisResult struct {
	Success        bool            `json:"success"`
	Audio          *AudioData      `json:"audio,omitempty"`
	ProviderUsed   string          `json:"provider_used,omitempty"`
	GenerationTime time.Duration   `json:"generation_time_ns"`
	AudioDuration  time.Duration   `json:"audio_duration_ns,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Attempts       []AttemptRecord `json:"attempts,omitempty"`
}

// ProviderStatus describes a provider's self-reported availability
type ProviderStatus string

const (
	StatusAvailable   ProviderStatus = "available"
	StatusUnavailable ProviderStatus = "unavailable"
	StatusDegraded    ProviderStatus = "degraded"
	StatusDisabled    ProviderStatus = "disabled"
)

// ProviderInfo is a provider's self-description, independent of the
// chain's circuit state. LastSuccessTime is zero if the provider has
// never completed a synthesis.
type ProviderInfo struct {
	Name            string         `json:"name"`
	Status          ProviderStatus `json:"status"`
	LastSuccessTime time.Time      `json:"last_success_time,omitempty"`
	SupportedVoices []string       `json:"supported_voices,omitempty"`
}
