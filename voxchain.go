// Package voxchain provides a lightweight meta-module that re-exports from submodules
// This is the main entry point for the voxchain library
// Users should import specific modules based on their needs:
//   - github.com/voxchain/voxchain/core - Types, configuration, and the provider contract
//   - github.com/voxchain/voxchain/tts - The provider chain and factory registry
//   - github.com/voxchain/voxchain/telemetry - For observability
//   - github.com/voxchain/voxchain/server - The HTTP facade
//
// Provider adapters register themselves on import:
//
//	import (
//	    _ "github.com/voxchain/voxchain/tts/providers/google"
//	    _ "github.com/voxchain/voxchain/tts/providers/local"
//	    _ "github.com/voxchain/voxchain/tts/providers/openai"
//	)
package voxchain

import (
	"context"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/tts"
)

// Re-export core types so simple programs need only this package
type (
	// Synthesis types
	SynthesisRequest = core.SynthesisRequest
	SynthesisResult  = core.SynthesisResult
	SynthesisError   = core.SynthesisError
	AudioData        = core.AudioData
	AttemptRecord    = core.AttemptRecord
	ProviderInfo     = core.ProviderInfo
	ProviderStatus   = core.ProviderStatus

	// Configuration types
	Config               = core.Config
	Option               = core.Option
	HTTPConfig           = core.HTTPConfig
	CORSConfig           = core.CORSConfig
	ProviderConfig       = core.ProviderConfig
	CircuitBreakerConfig = core.CircuitBreakerConfig
	GoogleConfig         = core.GoogleConfig
	OpenAIConfig         = core.OpenAIConfig
	LocalConfig          = core.LocalConfig
	TelemetryConfig      = core.TelemetryConfig
	LoggingConfig        = core.LoggingConfig
	DevelopmentConfig    = core.DevelopmentConfig

	// Interfaces
	Logger    = core.Logger
	Provider  = core.Provider
	Telemetry = core.Telemetry

	// Chain types
	ProviderChain          = tts.ProviderChain
	Entry                  = tts.Entry
	Dependencies           = tts.Dependencies
	ProviderFactory        = tts.ProviderFactory
	ProviderStatusSnapshot = tts.ProviderStatusSnapshot
)

// Re-export constants
const (
	ContentTypeMP3 = core.ContentTypeMP3
	ContentTypeWAV = core.ContentTypeWAV

	MaxTextLength            = core.MaxTextLength
	DisabledFailureThreshold = core.DisabledFailureThreshold

	StatusAvailable   = core.StatusAvailable
	StatusUnavailable = core.StatusUnavailable
	StatusDegraded    = core.StatusDegraded
)

// Re-export sentinel errors
var (
	ErrInvalidRequest       = core.ErrInvalidRequest
	ErrTextTooLong          = core.ErrTextTooLong
	ErrProviderNotFound     = core.ErrProviderNotFound
	ErrNoProvidersAvailable = core.ErrNoProvidersAvailable
	ErrAllProvidersFailed   = core.ErrAllProvidersFailed
	ErrCircuitOpen          = core.ErrCircuitOpen
	ErrAllKeysExhausted     = core.ErrAllKeysExhausted
	ErrInvalidConfiguration = core.ErrInvalidConfiguration
)

// Re-export core functions
var (
	NewConfig     = core.NewConfig
	DefaultConfig = core.DefaultConfig
	MemoryAudio   = core.MemoryAudio
	FileAudio     = core.FileAudio

	IsRetryable          = core.IsRetryable
	IsValidationError    = core.IsValidationError
	IsConfigurationError = core.IsConfigurationError
	IsCancellation       = core.IsCancellation

	// Configuration options
	WithName                 = core.WithName
	WithPort                 = core.WithPort
	WithAddress              = core.WithAddress
	WithCORS                 = core.WithCORS
	WithProviders            = core.WithProviders
	WithProvider             = core.WithProvider
	WithProviderEnabled      = core.WithProviderEnabled
	WithGoogleAPIKeySecrets  = core.WithGoogleAPIKeySecrets
	WithGoogleVoice          = core.WithGoogleVoice
	WithGoogleAudioEncoding  = core.WithGoogleAudioEncoding
	WithOpenAIAPIKeySecret   = core.WithOpenAIAPIKeySecret
	WithSecret               = core.WithSecret
	WithTelemetry            = core.WithTelemetry
	WithLogLevel             = core.WithLogLevel
	WithLogFormat            = core.WithLogFormat
	WithDevelopmentMode      = core.WithDevelopmentMode
	WithConfigFile           = core.WithConfigFile

	// Chain assembly
	NewDependencies    = tts.NewDependencies
	NewChainFromConfig = tts.NewChainFromConfig

	// Factory registration, for custom provider adapters
	RegisterProvider     = tts.Register
	MustRegisterProvider = tts.MustRegister
)

// Synthesize builds a chain from the configuration and runs a single
// request through it. Convenience for one-shot programs; services
// should build the chain once with NewChainFromConfig and reuse it.
func Synthesize(ctx context.Context, cfg *core.Config, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
	chain, err := tts.NewChainFromConfig(cfg, tts.NewDependencies(cfg))
	if err != nil {
		return nil, err
	}
	return chain.Synthesize(ctx, req)
}
