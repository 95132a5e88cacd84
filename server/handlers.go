package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/telemetry"
)

// maxRequestBody bounds synthesis request bodies. The text limit is
// 10k runes, so anything near this size is garbage, not a request.
const maxRequestBody = 1 << 20

// statusClientClosedRequest mirrors nginx's non-standard 499: the
// client went away before a response could be produced. Used for
// logging and metrics; the client never sees it.
const statusClientClosedRequest = 499

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type failureResponse struct {
	Error     string               `json:"error"`
	Attempts  []core.AttemptRecord `json:"attempts,omitempty"`
	RequestID string               `json:"request_id,omitempty"`
}

// handleSynthesize runs the chain and streams the winning provider's
// audio. Validation problems map to 400, an exhausted chain to 502,
// everything the chain classified as an expected failure stays JSON.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req core.SynthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.chain.Synthesize(r.Context(), &req)
	if err != nil {
		switch {
		case core.IsValidationError(err):
			s.writeError(w, r, http.StatusBadRequest, err.Error())
		case core.IsCancellation(err):
			// The client is gone; the status only feeds logs and metrics.
			w.WriteHeader(statusClientClosedRequest)
		default:
			s.writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if !result.Success {
		s.writeJSON(w, http.StatusBadGateway, failureResponse{
			Error:     result.ErrorMessage,
			Attempts:  result.Attempts,
			RequestID: RequestIDFromContext(r.Context()),
		})
		return
	}

	s.writeAudio(w, r, result)
}

// writeAudio streams the synthesis result. Provider attribution and
// timing travel in headers so the body stays raw audio.
func (s *Server) writeAudio(w http.ResponseWriter, r *http.Request, result *core.SynthesisResult) {
	w.Header().Set("Content-Type", result.Audio.ContentType)
	w.Header().Set("X-Provider-Used", result.ProviderUsed)
	w.Header().Set("X-Generation-Time-Ms", strconv.FormatInt(result.GenerationTime.Milliseconds(), 10))
	if result.AudioDuration > 0 {
		w.Header().Set("X-Audio-Duration-Ms", strconv.FormatInt(result.AudioDuration.Milliseconds(), 10))
	}
	if len(result.Attempts) > 0 {
		w.Header().Set("X-Fallback-Attempts", strconv.Itoa(len(result.Attempts)))
	}

	if result.Audio.InMemory() {
		w.Header().Set("Content-Length", strconv.Itoa(len(result.Audio.Data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(result.Audio.Data); err != nil {
			s.logAudioWriteError(r, result.ProviderUsed, err)
		}
		return
	}

	f, err := os.Open(result.Audio.Path)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "audio file unavailable: "+err.Error())
		return
	}
	defer func() {
		_ = f.Close()
		// File-based audio is scratch output; remove it once streamed.
		_ = os.Remove(result.Audio.Path)
	}()

	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.logAudioWriteError(r, result.ProviderUsed, err)
	}
}

func (s *Server) logAudioWriteError(r *http.Request, provider string, err error) {
	s.logger.Warn("Audio response write failed", map[string]interface{}{
		"operation":  "audio_write_failed",
		"request_id": RequestIDFromContext(r.Context()),
		"provider":   provider,
		"error":      err.Error(),
	})
}

// providerView merges the chain's circuit snapshot with the provider's
// self-reported availability.
type providerView struct {
	Name                string              `json:"name"`
	Priority            int                 `json:"priority"`
	Enabled             bool                `json:"enabled"`
	CircuitStatus       string              `json:"circuit_status"`
	OpenUntil           *time.Time          `json:"open_until,omitempty"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	Status              core.ProviderStatus `json:"status"`
	LastSuccessTime     *time.Time          `json:"last_success_time,omitempty"`
	SupportedVoices     []string            `json:"supported_voices,omitempty"`
}

type providersResponse struct {
	Providers []providerView `json:"providers"`
	Count     int            `json:"count"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	snapshots := s.chain.ProvidersStatus()
	infos := s.chain.ProviderInfos()

	infoByName := make(map[string]core.ProviderInfo, len(infos))
	for _, info := range infos {
		infoByName[info.Name] = info
	}

	views := make([]providerView, 0, len(snapshots))
	for _, snap := range snapshots {
		view := providerView{
			Name:                snap.Name,
			Priority:            snap.Priority,
			Enabled:             snap.Enabled,
			CircuitStatus:       snap.CircuitStatus,
			ConsecutiveFailures: snap.ConsecutiveFailures,
		}
		if !snap.OpenUntil.IsZero() {
			t := snap.OpenUntil
			view.OpenUntil = &t
		}
		if info, ok := infoByName[snap.Name]; ok {
			view.Status = info.Status
			view.SupportedVoices = info.SupportedVoices
			if !info.LastSuccessTime.IsZero() {
				t := info.LastSuccessTime
				view.LastSuccessTime = &t
			}
		}
		views = append(views, view)
	}

	s.writeJSON(w, http.StatusOK, providersResponse{
		Providers: views,
		Count:     len(views),
	})
}

type healthResponse struct {
	Status         string            `json:"status"`
	Service        string            `json:"service"`
	ProvidersTotal int               `json:"providers_total"`
	ProvidersOpen  int               `json:"providers_open"`
	LoggedErrors   int64             `json:"logged_errors"`
	Telemetry      *telemetry.Health `json:"telemetry,omitempty"`
}

// handleHealth reports degraded (503) only when every enabled provider
// sits behind an open circuit; anything else can still serve requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshots := s.chain.ProvidersStatus()

	enabled := 0
	open := 0
	for _, snap := range snapshots {
		if !snap.Enabled {
			continue
		}
		enabled++
		if snap.CircuitStatus == "open" {
			open++
		}
	}

	resp := healthResponse{
		Status:         "healthy",
		Service:        s.config.Name,
		ProvidersTotal: len(snapshots),
		ProvidersOpen:  open,
		LoggedErrors:   core.LoggedErrors(),
	}
	if th := telemetry.GetHealth(); th.Initialized {
		resp.Telemetry = &th
	}

	status := http.StatusOK
	if enabled > 0 && open == enabled {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", map[string]interface{}{
			"operation": "response_encode_failed",
			"error":     err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, status, errorResponse{
		Error:     message,
		RequestID: RequestIDFromContext(r.Context()),
	})
}
