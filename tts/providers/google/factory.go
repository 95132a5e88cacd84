package google

import (
	"fmt"
	"os"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/tts"
)

func init() {
	tts.MustRegister(&Factory{})
}

// Factory creates Google Cloud TTS providers
type Factory struct{}

// Name returns the provider name
func (f *Factory) Name() string {
	return ProviderName
}

// Description returns provider description
func (f *Factory) Description() string {
	return "Google Cloud Text-to-Speech with multi-key rotation"
}

// Create builds the multi-key client, resolving every configured API
// key secret up front. An unresolvable secret name or an empty secret
// list is a construction error: a cloud client without working
// credentials must not enter the chain.
func (f *Factory) Create(config *core.Config, deps tts.Dependencies) (core.Provider, error) {
	if len(config.Google.APIKeySecrets) == 0 {
		return nil, &core.SynthesisError{
			Op:      "google.Create",
			Kind:    "config",
			Message: "no API key secrets configured",
			Err:     core.ErrMissingConfiguration,
		}
	}

	keys := make([]Key, 0, len(config.Google.APIKeySecrets))
	for _, name := range config.Google.APIKeySecrets {
		value, err := config.ResolveSecret(name)
		if err != nil {
			return nil, fmt.Errorf("resolving API key secret %q: %w", name, err)
		}
		keys = append(keys, Key{Name: name, Value: value})
	}

	client := NewClient(config.Google, keys, "", deps.Logger)
	if deps.Telemetry != nil {
		client.Telemetry = deps.Telemetry
	}
	if deps.Clock != nil {
		client.Clock = deps.Clock
		client.pool.clock = deps.Clock
	}
	if deps.HTTPClient != nil {
		client.HTTPClient = deps.HTTPClient
	}
	return client, nil
}

// DetectEnvironment checks whether credentials for this provider are
// present in the environment.
func (f *Factory) DetectEnvironment() (priority int, available bool) {
	if os.Getenv("VOX_GOOGLE_API_KEY_SECRETS") != "" || os.Getenv("GOOGLE_TTS_API_KEY") != "" {
		return 80, true
	}
	return 0, false
}
