// Package local implements the offline XTTS provider. It shells out to
// the bundled Python helper around a finetuned XTTS model and returns
// the generated WAV file by path. Meant as the terminal fallback when
// the cloud providers are down.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/telemetry"
	"github.com/voxchain/voxchain/tts/providers"
)

// ProviderName is the registry name of this provider
const ProviderName = "local-xtts"

const (
	defaultPython   = "python3"
	defaultLanguage = "cs"
	defaultDevice   = "cpu"
	defaultTimeout  = 5 * time.Minute
)

// commandRunner executes the synthesis command and returns its combined
// output. Swapped in tests to avoid spawning Python.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Client implements core.Provider on top of the XTTS subprocess.
type Client struct {
	*providers.BaseClient
	name string
	cfg  core.LocalConfig
	run  commandRunner

	mu          sync.Mutex
	lastSuccess time.Time
}

// NewClient creates a local XTTS client. Path validation happens at
// factory construction; NewClient only fills runtime defaults.
func NewClient(cfg core.LocalConfig, logger core.Logger) *Client {
	if cfg.PythonPath == "" {
		cfg.PythonPath = defaultPython
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.Device == "" {
		cfg.Device = defaultDevice
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.TempDir()
	}

	return &Client{
		BaseClient: providers.NewBaseClient(cfg.Timeout, logger),
		name:       ProviderName,
		cfg:        cfg,
		run:        runCommand,
	}
}

// Name returns the provider's registry name.
func (c *Client) Name() string {
	return c.name
}

// Synthesize runs the XTTS helper and returns the WAV file it wrote.
// The finetuned checkpoint fixes the voice, so the request's voice,
// rate, and pitch fields are not forwarded.
func (c *Client) Synthesize(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
	ctx, span := c.StartSpan(ctx, "tts.local.synthesize")
	defer span.End()
	span.SetAttribute("tts.provider", c.name)
	span.SetAttribute("tts.text_length", len(req.Text))

	if req.Voice != "" || req.Rate != 0 || req.Pitch != 0 {
		c.Logger.Debug("Voice and prosody parameters are fixed by the checkpoint", map[string]interface{}{
			"operation": "synthesis_request",
			"provider":  c.name,
		})
	}
	c.LogRequest(c.name, "", len(req.Text))

	outputPath := filepath.Join(c.cfg.OutputDir, "speech-"+uuid.New().String()+".wav")
	args := c.buildArgs(req.Text, outputPath)

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := c.Clock.Now()
	output, err := c.run(runCtx, c.cfg.PythonPath, args...)
	elapsed := c.Clock.Now().Sub(start)

	if err != nil {
		if ctx.Err() != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("synthesis canceled: %w", ctx.Err())
		}
		telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "failure")
		span.RecordError(err)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			c.Logger.Warn("XTTS process timed out", map[string]interface{}{
				"operation": "synthesis_timeout",
				"provider":  c.name,
				"timeout":   c.cfg.Timeout.String(),
			})
			return providers.FailureResult(c.name, fmt.Sprintf("synthesis timed out after %s", c.cfg.Timeout)), nil
		}
		message := lastLine(output)
		if message == "" {
			message = err.Error()
		}
		c.Logger.Warn("XTTS process failed", map[string]interface{}{
			"operation": "synthesis_process_error",
			"provider":  c.name,
			"error":     message,
		})
		return providers.FailureResult(c.name, "xtts process failed: "+message), nil
	}

	if _, err := os.Stat(outputPath); err != nil {
		telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "failure")
		return providers.FailureResult(c.name, "synthesis produced no output file"), nil
	}

	audioDuration, err := wavDuration(outputPath)
	if err != nil {
		// Playback still works for most decoders; only the duration
		// metadata is lost.
		c.Logger.Warn("Could not read WAV duration", map[string]interface{}{
			"operation": "synthesis_response",
			"provider":  c.name,
			"file":      outputPath,
			"error":     err.Error(),
		})
		audioDuration = 0
	}

	c.mu.Lock()
	c.lastSuccess = c.Clock.Now()
	c.mu.Unlock()

	c.LogSynthesized(c.name, 0, elapsed)
	telemetry.Counter("tts.provider.requests", "provider", c.name, "outcome", "success")
	span.SetAttribute("tts.output_file", outputPath)

	return &core.SynthesisResult{
		Success:        true,
		Audio:          core.FileAudio(outputPath, core.ContentTypeWAV),
		ProviderUsed:   c.name,
		GenerationTime: elapsed,
		AudioDuration:  audioDuration,
	}, nil
}

func (c *Client) buildArgs(text, outputPath string) []string {
	return []string{
		c.cfg.ScriptPath,
		"--base-model", c.cfg.BaseModelPath,
		"--finetuned", c.cfg.CheckpointPath,
		"--reference-audio", c.cfg.ReferenceAudio,
		"--text", text,
		"--output", outputPath,
		"--language", c.cfg.Language,
		"--device", c.cfg.Device,
	}
}

// Info reports availability from the helper script's presence. The
// checkpoint fixes the voice, so no voice list is advertised.
func (c *Client) Info() core.ProviderInfo {
	c.mu.Lock()
	last := c.lastSuccess
	c.mu.Unlock()

	status := core.StatusAvailable
	if _, err := os.Stat(c.cfg.ScriptPath); err != nil {
		status = core.StatusUnavailable
	}
	return core.ProviderInfo{
		Name:            c.name,
		Status:          status,
		LastSuccessTime: last,
	}
}

// lastLine extracts the trailing diagnostic line from process output,
// which is where the helper prints its ERROR messages.
func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" && line != "SUCCESS" {
			return line
		}
	}
	return ""
}
