package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/voxchain/voxchain/core"
)

const fakeAudio = "fake-openai-mp3"

// speechBody mirrors the JSON the client library sends to the speech
// endpoint.
type speechBody struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// speechServer emulates POST /v1/audio/speech. A 200 answers with raw
// audio bytes, anything else with the API's JSON error shape.
type speechServer struct {
	mu       sync.Mutex
	status   int
	audio    []byte
	hits     int
	lastBody speechBody
	lastPath string
	lastAuth string
	server   *httptest.Server
}

func newSpeechServer(t *testing.T) *speechServer {
	t.Helper()
	fs := &speechServer{status: http.StatusOK, audio: []byte(fakeAudio)}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits++
		fs.lastPath = r.URL.Path
		fs.lastAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&fs.lastBody); err != nil {
			fs.mu.Unlock()
			t.Errorf("decoding request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		status := fs.status
		audio := fs.audio
		fs.mu.Unlock()

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error":{"message":"synthesis rejected","type":"api_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		if _, err := w.Write(audio); err != nil {
			t.Errorf("writing audio: %v", err)
		}
	}))
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *speechServer) setStatus(status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.status = status
}

func (fs *speechServer) setAudio(audio []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.audio = audio
}

func (fs *speechServer) hitCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits
}

func (fs *speechServer) body() speechBody {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastBody
}

func (fs *speechServer) path() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastPath
}

func (fs *speechServer) auth() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastAuth
}

func testConfig(baseURL string) core.OpenAIConfig {
	return core.OpenAIConfig{
		APIKeySecret: "OPENAI_API_KEY",
		Model:        "tts-1",
		Voice:        "alloy",
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
	}
}

func newTestClient(t *testing.T, fs *speechServer) (*Client, *clock.Mock) {
	t.Helper()
	client := NewClient(testConfig(fs.server.URL+"/v1"), "sk-test", &core.NoOpLogger{})
	clk := clock.NewMock()
	client.Clock = clk
	return client, clk
}

func speakRequest(text string) *core.SynthesisRequest {
	return &core.SynthesisRequest{Text: text}
}

// ================================
// Synthesis
// ================================

func TestSynthesizeSuccess(t *testing.T) {
	fs := newSpeechServer(t)
	client, clk := newTestClient(t, fs)
	clk.Add(time.Hour)

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
	if result.Audio == nil || !result.Audio.InMemory() {
		t.Fatal("expected in-memory audio")
	}
	if string(result.Audio.Data) != fakeAudio {
		t.Errorf("audio = %q, want %q", result.Audio.Data, fakeAudio)
	}
	if result.Audio.ContentType != core.ContentTypeMP3 {
		t.Errorf("ContentType = %q, want %q", result.Audio.ContentType, core.ContentTypeMP3)
	}

	if got := fs.path(); got != "/v1/audio/speech" {
		t.Errorf("request path = %q, want /v1/audio/speech", got)
	}
	if got := fs.auth(); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want bearer token", got)
	}
}

func TestRequestBodyMapping(t *testing.T) {
	tests := []struct {
		name      string
		req       *core.SynthesisRequest
		wantVoice string
		wantSpeed float64
	}{
		{
			name:      "defaults from config",
			req:       speakRequest("hello"),
			wantVoice: "alloy",
			wantSpeed: 0,
		},
		{
			name:      "voice override",
			req:       &core.SynthesisRequest{Text: "hello", Voice: "nova"},
			wantVoice: "nova",
			wantSpeed: 0,
		},
		{
			name:      "max rate maps to top speed",
			req:       &core.SynthesisRequest{Text: "hello", Rate: 100},
			wantVoice: "alloy",
			wantSpeed: 4.0,
		},
		{
			name:      "min rate maps to bottom speed",
			req:       &core.SynthesisRequest{Text: "hello", Rate: -100},
			wantVoice: "alloy",
			wantSpeed: 0.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newSpeechServer(t)
			client, _ := newTestClient(t, fs)

			result, err := client.Synthesize(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if !result.Success {
				t.Fatalf("Synthesize() failed: %s", result.ErrorMessage)
			}

			body := fs.body()
			if body.Model != "tts-1" {
				t.Errorf("model = %q, want tts-1", body.Model)
			}
			if body.Input != "hello" {
				t.Errorf("input = %q, want hello", body.Input)
			}
			if body.Voice != tt.wantVoice {
				t.Errorf("voice = %q, want %q", body.Voice, tt.wantVoice)
			}
			if body.ResponseFormat != "mp3" {
				t.Errorf("response_format = %q, want mp3", body.ResponseFormat)
			}
			if body.Speed != tt.wantSpeed {
				t.Errorf("speed = %v, want %v", body.Speed, tt.wantSpeed)
			}
		})
	}
}

// ================================
// Failure handling
// ================================

func TestAPIErrorBecomesFailureValue(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantText string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantText: "invalid or missing API key"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantText: "rate limit exceeded"},
		{name: "server error", status: http.StatusInternalServerError, wantText: "service temporarily unavailable (status 500)"},
		{name: "bad request", status: http.StatusBadRequest, wantText: "synthesis rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newSpeechServer(t)
			fs.setStatus(tt.status)
			client, _ := newTestClient(t, fs)

			result, err := client.Synthesize(context.Background(), speakRequest("hello"))
			if err != nil {
				t.Fatalf("expected failure value, got error %v", err)
			}
			if result.Success {
				t.Fatal("expected failure result")
			}
			if result.ProviderUsed != ProviderName {
				t.Errorf("ProviderUsed = %q, want %q", result.ProviderUsed, ProviderName)
			}
			if !strings.Contains(result.ErrorMessage, tt.wantText) {
				t.Errorf("ErrorMessage = %q, want substring %q", result.ErrorMessage, tt.wantText)
			}
		})
	}
}

func TestEmptyAudioStreamIsFailure(t *testing.T) {
	fs := newSpeechServer(t)
	fs.setAudio(nil)
	client, _ := newTestClient(t, fs)

	result, err := client.Synthesize(context.Background(), speakRequest("hello"))
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result for empty stream")
	}
	if !strings.Contains(result.ErrorMessage, "empty audio stream") {
		t.Errorf("ErrorMessage = %q, want empty stream message", result.ErrorMessage)
	}
}

func TestCancellationPropagates(t *testing.T) {
	fs := newSpeechServer(t)
	client, _ := newTestClient(t, fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

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
	if got := fs.hitCount(); got != 0 {
		t.Errorf("server hits = %d, want 0", got)
	}
}

// ================================
// Provider info
// ================================

func TestInfoReportsVoicesAndLastSuccess(t *testing.T) {
	fs := newSpeechServer(t)
	client, clk := newTestClient(t, fs)

	info := client.Info()
	if info.Name != ProviderName {
		t.Errorf("Name = %q, want %q", info.Name, ProviderName)
	}
	if info.Status != core.StatusAvailable {
		t.Errorf("Status = %q, want %q", info.Status, core.StatusAvailable)
	}
	if !info.LastSuccessTime.IsZero() {
		t.Errorf("LastSuccessTime = %v, want zero before first success", info.LastSuccessTime)
	}
	if len(info.SupportedVoices) != len(SupportedVoices) {
		t.Fatalf("SupportedVoices = %v, want %v", info.SupportedVoices, SupportedVoices)
	}

	clk.Add(time.Hour)
	if _, err := client.Synthesize(context.Background(), speakRequest("hello")); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if got := client.Info().LastSuccessTime; !got.Equal(clk.Now()) {
		t.Errorf("LastSuccessTime = %v, want %v", got, clk.Now())
	}
}
