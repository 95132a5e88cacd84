package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxchain/voxchain/telemetry"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDMiddleware assigns every request an ID, honoring one the
// caller already set. The ID travels in the response header and the
// request context so handlers and logs can correlate.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request ID set by
// RequestIDMiddleware, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// Flush implements http.Flusher so large audio bodies can stream.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// routeLabel maps a request path to a bounded metric label. Unknown
// paths collapse to "other" so probes cannot inflate cardinality.
func routeLabel(path string) string {
	switch {
	case path == "/api/synthesize" || path == "/api/providers":
		return path
	case path == "/health" || strings.HasPrefix(path, "/health/"):
		return path
	default:
		return "other"
	}
}

// loggingMiddleware logs requests and emits HTTP metrics. In
// development mode every request is logged; in production only
// errors and requests slower than a second.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	devMode := s.config.Development.Enabled
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		route := routeLabel(r.URL.Path)

		telemetry.Counter("tts.http.requests",
			"route", route,
			"method", r.Method,
			"status", strconv.Itoa(wrapped.statusCode))
		telemetry.Histogram("tts.http.duration_ms", float64(duration.Milliseconds()),
			"route", route)

		shouldLog := devMode ||
			wrapped.statusCode >= 400 ||
			duration > time.Second

		if !shouldLog {
			return
		}

		logData := map[string]interface{}{
			"operation":   "http_request",
			"request_id":  RequestIDFromContext(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}
		if r.ContentLength > 0 {
			logData["content_length"] = r.ContentLength
		}

		switch {
		case wrapped.statusCode >= 500:
			s.logger.Error("HTTP request error", logData)
		case wrapped.statusCode >= 400:
			s.logger.Warn("HTTP request client error", logData)
		case duration > time.Second:
			s.logger.Warn("HTTP request slow", logData)
		default:
			s.logger.Info("HTTP request", logData)
		}
	})
}
