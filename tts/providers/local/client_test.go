package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
)

func testConfig(t *testing.T) core.LocalConfig {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "xtts_generate.py")
	if err := os.WriteFile(script, []byte("# helper"), 0o644); err != nil {
		t.Fatal(err)
	}
	return core.LocalConfig{
		PythonPath:     "python3",
		ScriptPath:     script,
		BaseModelPath:  "/models/xtts-base",
		CheckpointPath: "/models/voice.pth",
		ReferenceAudio: "/models/reference.wav",
		OutputDir:      dir,
		Language:       "cs",
		Device:         "cpu",
		Timeout:        5 * time.Second,
	}
}

func newTestClient(t *testing.T, cfg core.LocalConfig) (*Client, *clock.Mock) {
	t.Helper()
	client := NewClient(cfg, &core.NoOpLogger{})
	clk := clock.NewMock()
	client.Clock = clk
	return client, clk
}

func speakRequest(text string) *core.SynthesisRequest {
	return &core.SynthesisRequest{Text: text}
}

func flagValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}

// ================================
// Synthesis
// ================================

func TestSynthesizeReturnsFileAudio(t *testing.T) {
	cfg := testConfig(t)
	client, clk := newTestClient(t, cfg)
	client.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		clk.Add(250 * time.Millisecond)
		writeWav(t, flagValue(t, args, "--output"), 48000, 48000)
		return []byte("SUCCESS"), nil
	}

	result, err := client.Synthesize(context.Background(), speakRequest("Dobrý den"))
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Synthesize() failed: %s", result.ErrorMessage)
	}
	if result.ProviderUsed != ProviderName {
		t.Errorf("ProviderUsed = %q, want %q", result.ProviderUsed, ProviderName)
	}

	if result.Audio == nil || result.Audio.InMemory() {
		t.Fatal("expected file-backed audio")
	}
	if filepath.Dir(result.Audio.Path) != cfg.OutputDir {
		t.Errorf("output dir = %q, want %q", filepath.Dir(result.Audio.Path), cfg.OutputDir)
	}
	if !strings.HasSuffix(result.Audio.Path, ".wav") {
		t.Errorf("output file = %q, want .wav suffix", result.Audio.Path)
	}
	if result.Audio.ContentType != core.ContentTypeWAV {
		t.Errorf("ContentType = %q, want %q", result.Audio.ContentType, core.ContentTypeWAV)
	}

	if result.GenerationTime != 250*time.Millisecond {
		t.Errorf("GenerationTime = %v, want 250ms", result.GenerationTime)
	}
	if result.AudioDuration != time.Second {
		t.Errorf("AudioDuration = %v, want 1s", result.AudioDuration)
	}
}

func TestCommandArguments(t *testing.T) {
	cfg := testConfig(t)
	client, _ := newTestClient(t, cfg)

	var gotName string
	var gotArgs []string
	client.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		writeWav(t, flagValue(t, args, "--output"), 48000, 0)
		return []byte("SUCCESS"), nil
	}

	if _, err := client.Synthesize(context.Background(), speakRequest("Dobrý den")); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if gotName != "python3" {
		t.Errorf("command = %q, want python3", gotName)
	}
	if len(gotArgs) == 0 || gotArgs[0] != cfg.ScriptPath {
		t.Fatalf("args[0] = %v, want script path %q", gotArgs, cfg.ScriptPath)
	}

	wantFlags := map[string]string{
		"--base-model":      cfg.BaseModelPath,
		"--finetuned":       cfg.CheckpointPath,
		"--reference-audio": cfg.ReferenceAudio,
		"--text":            "Dobrý den",
		"--language":        "cs",
		"--device":          "cpu",
	}
	for flag, want := range wantFlags {
		if got := flagValue(t, gotArgs, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
	if output := flagValue(t, gotArgs, "--output"); filepath.Dir(output) != cfg.OutputDir {
		t.Errorf("--output dir = %q, want %q", filepath.Dir(output), cfg.OutputDir)
	}
}

// ================================
// Failure handling
// ================================

func TestProcessFailureBecomesFailureValue(t *testing.T) {
	cfg := testConfig(t)
	client, _ := newTestClient(t, cfg)
	client.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		output := "Loading base model...\nERROR: Base model not found: /models/xtts-base\n"
		return []byte(output), errors.New("exit status 1")
	}

	result, err := client.Synthesize(context.Background(), speakRequest("hello"))
	if err != nil {
		t.Fatalf("expected failure value, got error %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(result.ErrorMessage, "xtts process failed") {
		t.Errorf("ErrorMessage = %q, want process failure prefix", result.ErrorMessage)
	}
	if !strings.Contains(result.ErrorMessage, "ERROR: Base model not found") {
		t.Errorf("ErrorMessage = %q, want script diagnostic", result.ErrorMessage)
	}
}

func TestMissingOutputFileIsFailure(t *testing.T) {
	cfg := testConfig(t)
	client, _ := newTestClient(t, cfg)
	client.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("SUCCESS"), nil
	}

	result, err := client.Synthesize(context.Background(), speakRequest("hello"))
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result when no file was written")
	}
	if !strings.Contains(result.ErrorMessage, "no output file") {
		t.Errorf("ErrorMessage = %q, want missing output message", result.ErrorMessage)
	}
}

func TestTimeoutIsFailureValue(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = 20 * time.Millisecond
	client, _ := newTestClient(t, cfg)
	client.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	result, err := client.Synthesize(context.Background(), speakRequest("hello"))
	if err != nil {
		t.Fatalf("expected failure value, got error %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result on timeout")
	}
	if want := "synthesis timed out after 20ms"; result.ErrorMessage != want {
		t.Errorf("ErrorMessage = %q, want %q", result.ErrorMessage, want)
	}
}

func TestCancellationPropagates(t *testing.T) {
	cfg := testConfig(t)
	client, _ := newTestClient(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	client.run = func(runCtx context.Context, name string, args ...string) ([]byte, error) {
		cancel()
		<-runCtx.Done()
		return nil, runCtx.Err()
	}

	result, err := client.Synthesize(ctx, speakRequest("hello"))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !core.IsCancellation(err) {
		t.Errorf("IsCancellation(%v) = false, want true", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil on cancellation", result)
	}
}

// ================================
// Provider info
// ================================

func TestInfoReflectsScriptPresence(t *testing.T) {
	cfg := testConfig(t)
	client, clk := newTestClient(t, cfg)

	info := client.Info()
	if info.Status != core.StatusAvailable {
		t.Errorf("Status = %q, want %q with script on disk", info.Status, core.StatusAvailable)
	}
	if !info.LastSuccessTime.IsZero() {
		t.Errorf("LastSuccessTime = %v, want zero before first success", info.LastSuccessTime)
	}
	if info.SupportedVoices != nil {
		t.Errorf("SupportedVoices = %v, want none (voice fixed by checkpoint)", info.SupportedVoices)
	}

	clk.Add(time.Hour)
	client.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		writeWav(t, flagValue(t, args, "--output"), 48000, 0)
		return []byte("SUCCESS"), nil
	}
	if _, err := client.Synthesize(context.Background(), speakRequest("hello")); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if got := client.Info().LastSuccessTime; !got.Equal(clk.Now()) {
		t.Errorf("LastSuccessTime = %v, want %v", got, clk.Now())
	}

	missing := testConfig(t)
	missing.ScriptPath = filepath.Join(t.TempDir(), "absent.py")
	offline, _ := newTestClient(t, missing)
	if got := offline.Info().Status; got != core.StatusUnavailable {
		t.Errorf("Status = %q, want %q with script missing", got, core.StatusUnavailable)
	}
}
