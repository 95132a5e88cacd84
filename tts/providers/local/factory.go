package local

import (
	"os"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/tts"
)

func init() {
	tts.MustRegister(&Factory{})
}

// Factory creates local XTTS providers.
type Factory struct{}

// Name returns the provider name this factory handles.
func (f *Factory) Name() string {
	return ProviderName
}

// Description returns a human-readable factory description.
func (f *Factory) Description() string {
	return "Local finetuned XTTS subprocess (offline fallback)"
}

// Create builds a local XTTS client. The model and script paths must
// be configured; the files themselves are only checked at synthesis
// time so the provider can be configured before models are installed.
func (f *Factory) Create(config *core.Config, deps tts.Dependencies) (core.Provider, error) {
	required := []struct {
		name  string
		value string
	}{
		{"script_path", config.Local.ScriptPath},
		{"base_model_path", config.Local.BaseModelPath},
		{"checkpoint_path", config.Local.CheckpointPath},
		{"reference_audio", config.Local.ReferenceAudio},
	}
	for _, field := range required {
		if field.value == "" {
			return nil, &core.SynthesisError{
				Op:      "local.Create",
				Kind:    "config",
				Message: field.name + " is not configured",
				Err:     core.ErrMissingConfiguration,
			}
		}
	}

	client := NewClient(config.Local, deps.Logger)
	if deps.Telemetry != nil {
		client.Telemetry = deps.Telemetry
	}
	if deps.Clock != nil {
		client.Clock = deps.Clock
	}
	return client, nil
}

// DetectEnvironment reports whether a helper script is configured in
// the ambient environment. Low priority; the cloud providers win when
// both are present.
func (f *Factory) DetectEnvironment() (int, bool) {
	if os.Getenv("VOX_LOCAL_SCRIPT") != "" {
		return 30, true
	}
	return 0, false
}
