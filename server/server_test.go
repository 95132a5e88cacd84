package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/resilience"
	"github.com/voxchain/voxchain/tts"
)

// stubProvider implements core.Provider with a scriptable synthesize
// function.
type stubProvider struct {
	name      string
	voices    []string
	synthFunc func(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error)
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Synthesize(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
	if p.synthFunc != nil {
		return p.synthFunc(ctx, req)
	}
	return &core.SynthesisResult{
		Success:        true,
		Audio:          core.MemoryAudio([]byte("stub-audio"), core.ContentTypeMP3),
		ProviderUsed:   p.name,
		GenerationTime: 42 * time.Millisecond,
	}, nil
}

func (p *stubProvider) Info() core.ProviderInfo {
	return core.ProviderInfo{
		Name:            p.name,
		Status:          core.StatusAvailable,
		SupportedVoices: p.voices,
	}
}

type serverFixture struct {
	server   *Server
	chain    *tts.ProviderChain
	breakers map[string]*resilience.Breaker
}

// newFixture assembles a server around stub providers, keeping breaker
// handles so tests can trip circuits directly.
func newFixture(t *testing.T, providers ...*stubProvider) *serverFixture {
	t.Helper()

	breakers := make(map[string]*resilience.Breaker, len(providers))
	entries := make([]tts.Entry, 0, len(providers))
	for i, p := range providers {
		breaker, err := resilience.NewBreaker(resilience.Settings{
			Name:             p.name,
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
		})
		require.NoError(t, err)
		breakers[p.name] = breaker
		entries = append(entries, tts.Entry{
			Name:     p.name,
			Provider: p,
			Priority: i + 1,
			Enabled:  true,
			Breaker:  breaker,
		})
	}

	chain, err := tts.NewProviderChain(tts.WithEntries(entries...))
	require.NoError(t, err)

	cfg := core.DefaultConfig()
	cfg.Name = "voxchain-test"

	srv, err := New(cfg, chain)
	require.NoError(t, err)

	return &serverFixture{server: srv, chain: chain, breakers: breakers}
}

func (f *serverFixture) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *serverFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSynthesizeStreamsAudio(t *testing.T) {
	f := newFixture(t, &stubProvider{name: "primary"})

	rec := f.post(t, "/api/synthesize", core.SynthesisRequest{Text: "Dobrý den"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stub-audio", rec.Body.String())
	assert.Equal(t, core.ContentTypeMP3, rec.Header().Get("Content-Type"))
	assert.Equal(t, "primary", rec.Header().Get("X-Provider-Used"))
	assert.Equal(t, "42", rec.Header().Get("X-Generation-Time-Ms"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Empty(t, rec.Header().Get("X-Fallback-Attempts"))
}

func TestSynthesizeFailoverHeaders(t *testing.T) {
	failing := &stubProvider{
		name: "first",
		synthFunc: func(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
			return &core.SynthesisResult{Success: false, ErrorMessage: "quota exceeded"}, nil
		},
	}
	f := newFixture(t, failing, &stubProvider{name: "second"})

	rec := f.post(t, "/api/synthesize", core.SynthesisRequest{Text: "hello"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "second", rec.Header().Get("X-Provider-Used"))
	assert.Equal(t, "1", rec.Header().Get("X-Fallback-Attempts"))
}

func TestSynthesizeServesFileAudio(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("riff-bytes"), 0o644))

	fileProvider := &stubProvider{
		name: "local-xtts",
		synthFunc: func(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
			return &core.SynthesisResult{
				Success:        true,
				Audio:          core.FileAudio(audioPath, core.ContentTypeWAV),
				ProviderUsed:   "local-xtts",
				GenerationTime: 800 * time.Millisecond,
				AudioDuration:  1500 * time.Millisecond,
			}, nil
		},
	}
	f := newFixture(t, fileProvider)

	rec := f.post(t, "/api/synthesize", core.SynthesisRequest{Text: "hello"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "riff-bytes", rec.Body.String())
	assert.Equal(t, core.ContentTypeWAV, rec.Header().Get("Content-Type"))
	assert.Equal(t, "1500", rec.Header().Get("X-Audio-Duration-Ms"))

	// The scratch file is removed once streamed
	_, err := os.Stat(audioPath)
	assert.True(t, os.IsNotExist(err))
}

func TestSynthesizeValidation(t *testing.T) {
	f := newFixture(t, &stubProvider{name: "primary"})

	rec := f.post(t, "/api/synthesize", core.SynthesisRequest{Text: "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "text is required")
	assert.NotEmpty(t, resp.RequestID)
}

func TestSynthesizeMalformedBody(t *testing.T) {
	f := newFixture(t, &stubProvider{name: "primary"})

	req := httptest.NewRequest(http.MethodPost, "/api/synthesize", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "invalid request body")
}

func TestSynthesizeAllProvidersFailed(t *testing.T) {
	fail := func(ctx context.Context, req *core.SynthesisRequest) (*core.SynthesisResult, error) {
		return &core.SynthesisResult{Success: false, ErrorMessage: "rejected"}, nil
	}
	f := newFixture(t,
		&stubProvider{name: "first", synthFunc: fail},
		&stubProvider{name: "second", synthFunc: fail},
	)

	rec := f.post(t, "/api/synthesize", core.SynthesisRequest{Text: "hello"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp failureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "All 2 providers failed", resp.Error)
	assert.Len(t, resp.Attempts, 2)
}

func TestSynthesizeMethodNotAllowed(t *testing.T) {
	f := newFixture(t, &stubProvider{name: "primary"})

	rec := f.get(t, "/api/synthesize")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProvidersEndpoint(t *testing.T) {
	f := newFixture(t,
		&stubProvider{name: "google", voices: []string{"cs-CZ-Wavenet-A"}},
		&stubProvider{name: "openai"},
	)

	rec := f.get(t, "/api/providers")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp providersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)

	byName := make(map[string]providerView, len(resp.Providers))
	for _, v := range resp.Providers {
		byName[v.Name] = v
	}

	google := byName["google"]
	assert.Equal(t, 1, google.Priority)
	assert.True(t, google.Enabled)
	assert.Equal(t, "closed", google.CircuitStatus)
	assert.Equal(t, core.StatusAvailable, google.Status)
	assert.Equal(t, []string{"cs-CZ-Wavenet-A"}, google.SupportedVoices)
	assert.Nil(t, google.LastSuccessTime)

	openai := byName["openai"]
	assert.Equal(t, 2, openai.Priority)
	assert.Empty(t, openai.SupportedVoices)
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t, &stubProvider{name: "primary"}, &stubProvider{name: "backup"})

	rec := f.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "voxchain-test", resp.Service)
	assert.Equal(t, 2, resp.ProvidersTotal)
	assert.Equal(t, 0, resp.ProvidersOpen)
}

func TestHealthDegradedWhenAllCircuitsOpen(t *testing.T) {
	f := newFixture(t, &stubProvider{name: "primary"}, &stubProvider{name: "backup"})

	for _, breaker := range f.breakers {
		for i := 0; i < 3; i++ {
			breaker.RecordFailure()
		}
	}

	rec := f.get(t, "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, 2, resp.ProvidersOpen)
}

func TestNewRejectsMissingPieces(t *testing.T) {
	f := newFixture(t, &stubProvider{name: "primary"})

	_, err := New(nil, f.chain)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)

	_, err = New(core.DefaultConfig(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}
