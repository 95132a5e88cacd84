package local

import (
	"errors"
	"testing"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/tts"
)

func TestFactoryCreateRequiresPaths(t *testing.T) {
	complete := func() *core.Config {
		cfg := core.DefaultConfig()
		cfg.Local.ScriptPath = "/opt/xtts/xtts_generate.py"
		cfg.Local.BaseModelPath = "/models/xtts-base"
		cfg.Local.CheckpointPath = "/models/voice.pth"
		cfg.Local.ReferenceAudio = "/models/reference.wav"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*core.Config)
		wantErr bool
	}{
		{name: "all paths set", mutate: func(*core.Config) {}},
		{name: "missing script", mutate: func(c *core.Config) { c.Local.ScriptPath = "" }, wantErr: true},
		{name: "missing base model", mutate: func(c *core.Config) { c.Local.BaseModelPath = "" }, wantErr: true},
		{name: "missing checkpoint", mutate: func(c *core.Config) { c.Local.CheckpointPath = "" }, wantErr: true},
		{name: "missing reference audio", mutate: func(c *core.Config) { c.Local.ReferenceAudio = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := complete()
			tt.mutate(cfg)

			factory := &Factory{}
			provider, err := factory.Create(cfg, tts.Dependencies{Logger: &core.NoOpLogger{}})

			if tt.wantErr {
				if !errors.Is(err, core.ErrMissingConfiguration) {
					t.Fatalf("Create() error = %v, want %v", err, core.ErrMissingConfiguration)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if provider.Name() != ProviderName {
				t.Errorf("Name() = %q, want %q", provider.Name(), ProviderName)
			}
		})
	}
}
