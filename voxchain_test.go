package voxchain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/tts"
)

type rootStubFactory struct{}

func (rootStubFactory) Create(config *core.Config, deps tts.Dependencies) (core.Provider, error) {
	return rootStubProvider{}, nil
}

func (rootStubFactory) DetectEnvironment() (int, bool) { return 1, true }
func (rootStubFactory) Name() string                   { return "root-stub" }
func (rootStubFactory) Description() string            { return "test provider" }

type rootStubProvider struct{}

func (rootStubProvider) Name() string { return "root-stub" }

func (rootStubProvider) Synthesize(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
	return &core.SynthesisResult{
		Success:        true,
		Audio:          core.MemoryAudio([]byte("root-audio"), core.ContentTypeMP3),
		GenerationTime: time.Millisecond,
	}, nil
}

func (rootStubProvider) Info() core.ProviderInfo {
	return core.ProviderInfo{Name: "root-stub", Status: core.StatusAvailable}
}

func TestSynthesizeConvenience(t *testing.T) {
	MustRegisterProvider(rootStubFactory{})

	cfg := DefaultConfig()
	cfg.Providers = []ProviderConfig{
		{Name: "root-stub", Priority: 1, Enabled: true},
	}

	result, err := Synthesize(context.Background(), cfg, &SynthesisRequest{Text: "hello"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "root-stub", result.ProviderUsed)
	assert.Equal(t, []byte("root-audio"), result.Audio.Data)
}

func TestAliasedHelpersMatchCore(t *testing.T) {
	audio := MemoryAudio([]byte("x"), ContentTypeMP3)
	assert.Equal(t, core.ContentTypeMP3, audio.ContentType)

	req := &SynthesisRequest{Text: ""}
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
