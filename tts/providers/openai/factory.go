package openai

import (
	"fmt"
	"os"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/tts"
)

func init() {
	tts.MustRegister(&Factory{})
}

// Factory creates OpenAI TTS providers.
type Factory struct{}

// Name returns the provider name this factory handles.
func (f *Factory) Name() string {
	return ProviderName
}

// Description returns a human-readable factory description.
func (f *Factory) Description() string {
	return "OpenAI text-to-speech (tts-1 model family)"
}

// Create builds an OpenAI client from configuration. A missing or
// unresolvable API key secret is a construction error; the runtime
// skips the provider rather than enqueue doomed requests.
func (f *Factory) Create(config *core.Config, deps tts.Dependencies) (core.Provider, error) {
	secretName := config.OpenAI.APIKeySecret
	if secretName == "" {
		return nil, &core.SynthesisError{
			Op:      "openai.Create",
			Kind:    "config",
			Message: "no API key secret configured",
			Err:     core.ErrMissingConfiguration,
		}
	}
	apiKey, err := config.ResolveSecret(secretName)
	if err != nil {
		return nil, fmt.Errorf("resolving API key secret %q: %w", secretName, err)
	}

	client := NewClient(config.OpenAI, apiKey, deps.Logger)
	if deps.Telemetry != nil {
		client.Telemetry = deps.Telemetry
	}
	if deps.Clock != nil {
		client.Clock = deps.Clock
	}
	if deps.HTTPClient != nil {
		client.SetHTTPClient(deps.HTTPClient)
	}
	return client, nil
}

// DetectEnvironment reports whether the ambient environment carries an
// OpenAI API key.
func (f *Factory) DetectEnvironment() (int, bool) {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return 90, true
	}
	return 0, false
}
