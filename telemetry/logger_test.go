package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// newTestLogger builds a logger directly, bypassing the singleton so
// tests do not interfere with each other.
func newTestLogger(t *testing.T) (*TelemetryLogger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("VOX_LOG_LEVEL", "")
	t.Setenv("VOX_DEBUG", "")
	t.Setenv("TELEMETRY_DEBUG", "")
	t.Setenv("VOX_LOG_FORMAT", "")
	t.Setenv("KUBERNETES_SERVICE_HOST", "")

	logger := createTelemetryLogger("voxchain-test")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	return logger, buf
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t)

	// Default level is INFO, so Debug is suppressed
	logger.Debug("debug message", nil)
	if buf.Len() != 0 {
		t.Errorf("expected debug to be suppressed at INFO level, got %q", buf.String())
	}

	logger.Info("info message", nil)
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("expected info message in output, got %q", buf.String())
	}

	buf.Reset()
	logger.SetLevel("WARN")
	logger.Info("hidden info", nil)
	if buf.Len() != 0 {
		t.Errorf("expected info suppressed at WARN level, got %q", buf.String())
	}
	logger.Warn("visible warning", nil)
	if !strings.Contains(buf.String(), "visible warning") {
		t.Errorf("expected warning in output, got %q", buf.String())
	}
}

func TestLoggerDebugMode(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.SetLevel("DEBUG")
	logger.Debug("debug enabled", map[string]interface{}{"module": "telemetry"})
	if !strings.Contains(buf.String(), "debug enabled") {
		t.Errorf("expected debug output at DEBUG level, got %q", buf.String())
	}
}

func TestLoggerTextFormat(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.Info("collector unreachable", map[string]interface{}{
		"endpoint": "localhost:4317",
		"error":    "connection refused",
		"attempt":  3,
	})

	line := buf.String()
	if !strings.Contains(line, "[INFO]") {
		t.Errorf("expected level tag in output, got %q", line)
	}
	if !strings.Contains(line, "[telemetry:voxchain-test]") {
		t.Errorf("expected component prefix, got %q", line)
	}
	// Priority fields come before the rest
	endpointIdx := strings.Index(line, "endpoint=")
	attemptIdx := strings.Index(line, "attempt=")
	if endpointIdx == -1 || attemptIdx == -1 || endpointIdx > attemptIdx {
		t.Errorf("expected endpoint before attempt in %q", line)
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	logger, buf := newTestLogger(t)
	logger.SetFormat("json")

	logger.Warn("circuit opened", map[string]interface{}{
		"failure_count": 10,
		"message":       "should not clobber",
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("expected WARN level, got %v", entry["level"])
	}
	if entry["service"] != "voxchain-test" {
		t.Errorf("expected service name, got %v", entry["service"])
	}
	if entry["component"] != "telemetry" {
		t.Errorf("expected telemetry component, got %v", entry["component"])
	}
	// The caller's "message" field must not overwrite the log message
	if entry["message"] != "circuit opened" {
		t.Errorf("expected log message preserved, got %v", entry["message"])
	}
	if entry["failure_count"] != float64(10) {
		t.Errorf("expected failure_count field, got %v", entry["failure_count"])
	}
}

func TestLoggerErrorRateLimit(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.Error("export failed", nil)
	logger.Error("export failed", nil)
	logger.Error("export failed", nil)

	if got := strings.Count(buf.String(), "export failed"); got != 1 {
		t.Errorf("expected 1 error line within the rate window, got %d", got)
	}

	// A fresh interval allows the next error through
	logger.errorLimiter = NewRateLimiter(time.Millisecond)
	time.Sleep(2 * time.Millisecond)
	logger.Error("export failed again", nil)
	if !strings.Contains(buf.String(), "export failed again") {
		t.Error("expected error after rate window to be logged")
	}
}

func TestLoggerKubernetesAutoDetect(t *testing.T) {
	t.Setenv("VOX_LOG_LEVEL", "")
	t.Setenv("VOX_DEBUG", "")
	t.Setenv("TELEMETRY_DEBUG", "")
	t.Setenv("VOX_LOG_FORMAT", "")
	t.Setenv("KUBERNETES_SERVICE_HOST", "10.0.0.1")

	logger := createTelemetryLogger("voxchain-test")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.Info("running in cluster", nil)
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output inside Kubernetes, got %q", buf.String())
	}

	// Explicit format wins over auto-detection
	t.Setenv("VOX_LOG_FORMAT", "text")
	logger = createTelemetryLogger("voxchain-test")
	buf = &bytes.Buffer{}
	logger.SetOutput(buf)
	logger.Info("text override", nil)
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected text output with explicit override, got %q", buf.String())
	}
}
