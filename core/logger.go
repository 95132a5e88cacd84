package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel represents the minimum severity a logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the uppercase name used in log output.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a case-insensitive level name to a LogLevel.
// Unknown names fall back to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "info", "":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// loggedErrors counts Error-level entries emitted by metric-enabled loggers.
// Exposed through LoggedErrors for health reporting.
var loggedErrors atomic.Int64

// LoggedErrors returns the total number of error entries logged by
// production loggers since process start.
func LoggedErrors() int64 {
	return loggedErrors.Load()
}

// ProductionLogger is the standard structured logger. It emits one JSON
// object per line (or a human-readable text line in development), tags
// every entry with the service name and the library component that
// produced it, and is safe for concurrent use.
//
// Child loggers created with WithComponent share the parent's output
// and configuration, so log ordering is preserved across components.
type ProductionLogger struct {
	level          LogLevel
	serviceName    string
	component      string
	format         string
	timeFormat     string
	output         io.Writer
	mu             *sync.Mutex
	metricsEnabled bool
}

// NewProductionLogger creates a logger from the logging and development
// configuration sections. Development settings take precedence: debug
// logging lowers the level and pretty logs switch to text format.
// The default component is "voxchain/core"; use WithComponent to
// attribute entries to other components.
func NewProductionLogger(cfg LoggingConfig, dev DevelopmentConfig, serviceName string) Logger {
	level := ParseLogLevel(cfg.Level)
	if dev.DebugLogging {
		level = LogLevelDebug
	}

	format := cfg.Format
	if format == "" {
		format = "json"
	}
	if dev.PrettyLogs {
		format = "text"
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	return &ProductionLogger{
		level:          level,
		serviceName:    serviceName,
		component:      "voxchain/core",
		format:         format,
		timeFormat:     timeFormat,
		output:         resolveLogOutput(cfg.Output),
		mu:             &sync.Mutex{},
		metricsEnabled: true,
	}
}

// resolveLogOutput maps the configured output name to a writer.
// Anything other than stdout/stderr is treated as a file path;
// if the file cannot be opened the logger falls back to stderr.
func resolveLogOutput(output string) io.Writer {
	switch output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: cannot open %s, falling back to stderr: %v\n", output, err)
			return os.Stderr
		}
		return f
	}
}

// WithComponent returns a new logger that attributes entries to the
// given component while sharing the parent's configuration and output.
func (p *ProductionLogger) WithComponent(component string) Logger {
	child := *p
	child.component = component
	return &child
}

func (p *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	p.log(LogLevelDebug, msg, fields)
}

func (p *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	p.log(LogLevelInfo, msg, fields)
}

func (p *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	p.log(LogLevelWarn, msg, fields)
}

func (p *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	p.log(LogLevelError, msg, fields)
	if p.metricsEnabled {
		loggedErrors.Add(1)
	}
}

func (p *ProductionLogger) log(level LogLevel, msg string, fields map[string]interface{}) {
	if level < p.level {
		return
	}

	timeFormat := p.timeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	timestamp := time.Now().Format(timeFormat)

	var line []byte
	if p.format == "text" {
		line = p.formatText(timestamp, level, msg, fields)
	} else {
		line = p.formatJSON(timestamp, level, msg, fields)
	}

	if p.mu != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
	}
	p.output.Write(line)
}

// formatJSON builds one JSON object per line. Caller fields are merged
// at the top level; reserved keys keep the logger's own values.
func (p *ProductionLogger) formatJSON(timestamp string, level LogLevel, msg string, fields map[string]interface{}) []byte {
	entry := make(map[string]interface{}, len(fields)+5)
	for k, v := range fields {
		entry[k] = v
	}
	entry["timestamp"] = timestamp
	entry["level"] = level.String()
	entry["service"] = p.serviceName
	entry["component"] = p.component
	entry["message"] = msg

	line, err := json.Marshal(entry)
	if err != nil {
		// Fields contained something unmarshalable; log without them.
		line, _ = json.Marshal(map[string]interface{}{
			"timestamp": timestamp,
			"level":     level.String(),
			"service":   p.serviceName,
			"component": p.component,
			"message":   msg,
			"log_error": err.Error(),
		})
	}
	return append(line, '\n')
}

// formatText builds a human-readable line for local development:
// timestamp [LEVEL] [service] message key=value ...
// The component field is omitted; it exists for JSON log aggregation.
func (p *ProductionLogger) formatText(timestamp string, level LogLevel, msg string, fields map[string]interface{}) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", timestamp, level.String(), p.serviceName, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// createComponentLogger wraps base with the given component when the
// logger supports component attribution, otherwise returns base as-is.
func createComponentLogger(base Logger, component string) Logger {
	if cal, ok := base.(ComponentAwareLogger); ok {
		return cal.WithComponent(component)
	}
	return base
}
