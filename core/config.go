package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the voxchain library.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// The configuration automatically detects the execution environment (Kubernetes vs local)
// and adjusts defaults accordingly.
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithName("narrator"),
//	    WithGoogleAPIKeySecrets("TTS_KEY_1", "TTS_KEY_2"),
//	    WithProviderEnabled("local-xtts", true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Core configuration
	Name    string `json:"name" yaml:"name" env:"VOX_SERVICE_NAME"`
	ID      string `json:"id" yaml:"id" env:"VOX_SERVICE_ID"`
	Port    int    `json:"port" yaml:"port" env:"VOX_PORT" default:"8080" validate:"gte=1,lte=65535"`
	Address string `json:"address" yaml:"address" env:"VOX_ADDRESS"`

	// HTTP Server configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Synthesis providers, in the order they should be tried by default.
	// Ordering is ascending by Priority with ties broken by name.
	Providers []ProviderConfig `json:"providers" yaml:"providers" validate:"dive"`

	// Google Cloud TTS configuration
	Google GoogleConfig `json:"google" yaml:"google"`

	// OpenAI TTS configuration
	OpenAI OpenAIConfig `json:"openai" yaml:"openai"`

	// Local XTTS subprocess configuration
	Local LocalConfig `json:"local" yaml:"local"`

	// Secrets maps symbolic secret names to values. Lookups fall back to
	// environment variables, so this map only needs entries for secrets
	// that are not already in the process environment.
	Secrets map[string]string `json:"secrets,omitempty" yaml:"secrets,omitempty"`

	// Telemetry configuration (optional module)
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Development configuration
	Development DevelopmentConfig `json:"development" yaml:"development"`
}

// HTTPConfig contains HTTP server configuration including timeouts, limits, and CORS settings.
// All timeout values use time.Duration for flexibility.
type HTTPConfig struct {
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout" env:"VOX_HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout" env:"VOX_HTTP_WRITE_TIMEOUT" default:"120s"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout" env:"VOX_HTTP_IDLE_TIMEOUT" default:"120s"`
	MaxHeaderBytes    int           `json:"max_header_bytes" yaml:"max_header_bytes" env:"VOX_HTTP_MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"VOX_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	EnableHealthCheck bool          `json:"enable_health_check" yaml:"enable_health_check" env:"VOX_HTTP_HEALTH_CHECK" default:"true"`
	HealthCheckPath   string        `json:"health_check_path" yaml:"health_check_path" env:"VOX_HTTP_HEALTH_PATH" default:"/health"`
	CORS              CORSConfig    `json:"cors" yaml:"cors"`
}

// CORSConfig contains Cross-Origin Resource Sharing (CORS) configuration.
// Supports wildcard domains (e.g., *.example.com) and wildcard ports (e.g., http://localhost:*).
//
// Security note: Be cautious with AllowCredentials=true and ensure AllowedOrigins
// is properly restricted in production environments.
type CORSConfig struct {
	Enabled          bool     `json:"enabled" yaml:"enabled" env:"VOX_CORS_ENABLED" default:"false"`
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins" env:"VOX_CORS_ORIGINS"`
	AllowedMethods   []string `json:"allowed_methods" yaml:"allowed_methods" env:"VOX_CORS_METHODS" default:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `json:"allowed_headers" yaml:"allowed_headers" env:"VOX_CORS_HEADERS" default:"Content-Type,Authorization"`
	ExposedHeaders   []string `json:"exposed_headers" yaml:"exposed_headers" env:"VOX_CORS_EXPOSED_HEADERS"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials" env:"VOX_CORS_CREDENTIALS" default:"false"`
	MaxAge           int      `json:"max_age" yaml:"max_age" env:"VOX_CORS_MAX_AGE" default:"86400"`
}

// ProviderConfig describes one synthesis provider in the fallback chain.
// Priority orders the default chain (lower tries first); Enabled gates
// whether the provider participates at all.
type ProviderConfig struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Priority int    `json:"priority" yaml:"priority"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`

	// CircuitBreaker settings for this provider's slot in the chain.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker" yaml:"circuit_breaker"`
}

// CircuitBreakerConfig contains per-provider circuit breaker settings.
// A FailureThreshold of DisabledFailureThreshold effectively disables the
// breaker, which is how terminal offline providers stay always reachable.
type CircuitBreakerConfig struct {
	FailureThreshold      int           `json:"failure_threshold" yaml:"failure_threshold" default:"3" validate:"omitempty,gte=1"`
	ResetTimeout          time.Duration `json:"reset_timeout" yaml:"reset_timeout" default:"30s"`
	UseExponentialBackoff bool          `json:"use_exponential_backoff" yaml:"use_exponential_backoff" default:"false"`
	MaxResetTimeout       time.Duration `json:"max_reset_timeout" yaml:"max_reset_timeout" default:"10m"`
}

// DisabledFailureThreshold is a sentinel threshold that a breaker can
// never reach, keeping the provider permanently available. Used for
// terminal offline fallbacks that must always be tried.
const DisabledFailureThreshold = 1<<31 - 1

// GoogleConfig contains Google Cloud Text-to-Speech configuration.
// APIKeySecrets holds symbolic secret names (not key material); each is
// resolved through Config.ResolveSecret at client construction time.
type GoogleConfig struct {
	APIKeySecrets   []string      `json:"api_key_secrets" yaml:"api_key_secrets" env:"VOX_GOOGLE_API_KEY_SECRETS"`
	Voice           string        `json:"voice" yaml:"voice" env:"VOX_GOOGLE_VOICE" default:"cs-CZ-Wavenet-A"`
	AudioEncoding   string        `json:"audio_encoding" yaml:"audio_encoding" env:"VOX_GOOGLE_AUDIO_ENCODING" default:"MP3" validate:"omitempty,oneof=MP3 LINEAR16 OGG_OPUS"`
	SpeakingRate    float64       `json:"speaking_rate" yaml:"speaking_rate" env:"VOX_GOOGLE_SPEAKING_RATE" default:"1.0" validate:"omitempty,gte=0.25,lte=4"`
	Pitch           float64       `json:"pitch" yaml:"pitch" env:"VOX_GOOGLE_PITCH" default:"0" validate:"gte=-20,lte=20"`
	VolumeGainDb    float64       `json:"volume_gain_db" yaml:"volume_gain_db" env:"VOX_GOOGLE_VOLUME_GAIN_DB" default:"0" validate:"gte=-96,lte=16"`
	SampleRateHertz int           `json:"sample_rate_hertz" yaml:"sample_rate_hertz" env:"VOX_GOOGLE_SAMPLE_RATE" default:"0" validate:"gte=0"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout" env:"VOX_GOOGLE_TIMEOUT" default:"30s"`

	// Cooldown windows applied to keys after quota-style rejections.
	RateLimitCooldown time.Duration `json:"rate_limit_cooldown" yaml:"rate_limit_cooldown" env:"VOX_GOOGLE_RATE_LIMIT_COOLDOWN" default:"1h"`
	QuotaCooldown     time.Duration `json:"quota_cooldown" yaml:"quota_cooldown" env:"VOX_GOOGLE_QUOTA_COOLDOWN" default:"24h"`
}

// OpenAIConfig contains OpenAI text-to-speech configuration.
type OpenAIConfig struct {
	APIKeySecret string        `json:"api_key_secret" yaml:"api_key_secret" env:"VOX_OPENAI_API_KEY_SECRET" default:"OPENAI_API_KEY"`
	Model        string        `json:"model" yaml:"model" env:"VOX_OPENAI_MODEL" default:"tts-1"`
	Voice        string        `json:"voice" yaml:"voice" env:"VOX_OPENAI_VOICE" default:"alloy"`
	BaseURL      string        `json:"base_url" yaml:"base_url" env:"VOX_OPENAI_BASE_URL"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" env:"VOX_OPENAI_TIMEOUT" default:"60s"`
}

// LocalConfig contains configuration for the local XTTS subprocess
// provider, which shells out to a Python helper around a finetuned
// XTTS model. All paths must exist on the host running synthesis.
type LocalConfig struct {
	PythonPath     string        `json:"python_path" yaml:"python_path" env:"VOX_LOCAL_PYTHON" default:"python3"`
	ScriptPath     string        `json:"script_path" yaml:"script_path" env:"VOX_LOCAL_SCRIPT"`
	BaseModelPath  string        `json:"base_model_path" yaml:"base_model_path" env:"VOX_LOCAL_BASE_MODEL"`
	CheckpointPath string        `json:"checkpoint_path" yaml:"checkpoint_path" env:"VOX_LOCAL_CHECKPOINT"`
	ReferenceAudio string        `json:"reference_audio" yaml:"reference_audio" env:"VOX_LOCAL_REFERENCE_AUDIO"`
	OutputDir      string        `json:"output_dir" yaml:"output_dir" env:"VOX_LOCAL_OUTPUT_DIR"`
	Language       string        `json:"language" yaml:"language" env:"VOX_LOCAL_LANGUAGE" default:"cs"`
	Device         string        `json:"device" yaml:"device" env:"VOX_LOCAL_DEVICE" default:"cpu" validate:"omitempty,oneof=cpu cuda"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout" env:"VOX_LOCAL_TIMEOUT" default:"5m"`
}

// TelemetryConfig contains OpenTelemetry configuration.
// This is an optional module; metrics and traces are only exported when
// Enabled=true and an endpoint is configured.
type TelemetryConfig struct {
	Enabled        bool    `json:"enabled" yaml:"enabled" env:"VOX_TELEMETRY_ENABLED" default:"false"`
	Endpoint       string  `json:"endpoint" yaml:"endpoint" env:"VOX_OTEL_ENDPOINT,OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName    string  `json:"service_name" yaml:"service_name" env:"VOX_TELEMETRY_SERVICE_NAME"`
	MetricsEnabled bool    `json:"metrics_enabled" yaml:"metrics_enabled" env:"VOX_METRICS_ENABLED" default:"true"`
	TracingEnabled bool    `json:"tracing_enabled" yaml:"tracing_enabled" env:"VOX_TRACING_ENABLED" default:"true"`
	SamplingRate   float64 `json:"sampling_rate" yaml:"sampling_rate" env:"VOX_TRACE_SAMPLING_RATE" default:"1.0" validate:"gte=0,lte=1"`
	Insecure       bool    `json:"insecure" yaml:"insecure" env:"VOX_OTEL_INSECURE" default:"true"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" env:"VOX_LOG_LEVEL" default:"info" validate:"omitempty,oneof=debug info warn error"`
	Format     string `json:"format" yaml:"format" env:"VOX_LOG_FORMAT" default:"json" validate:"omitempty,oneof=json text"`
	Output     string `json:"output" yaml:"output" env:"VOX_LOG_OUTPUT" default:"stdout"`
	TimeFormat string `json:"time_format" yaml:"time_format" env:"VOX_LOG_TIME_FORMAT" default:"2006-01-02T15:04:05.000Z07:00"`
}

// DevelopmentConfig contains settings for local development.
type DevelopmentConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled" env:"VOX_DEV_MODE" default:"false"`
	DebugLogging bool `json:"debug_logging" yaml:"debug_logging" env:"VOX_DEBUG" default:"false"`
	PrettyLogs   bool `json:"pretty_logs" yaml:"pretty_logs" env:"VOX_PRETTY_LOGS" default:"false"`
}

// Option is a functional option for configuring the library.
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults.
// The defaults are adjusted based on the detected environment:
//   - Kubernetes: 0.0.0.0 binding, JSON logging
//   - Local: localhost binding, text logging, development mode
//
// These defaults can be overridden using functional options or environment variables.
func DefaultConfig() *Config {
	cfg := &Config{
		Name:    "voxchain",
		Port:    8080,
		Address: "", // Will be set based on environment detection
		HTTP: HTTPConfig{
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1MB
			ShutdownTimeout:   10 * time.Second,
			EnableHealthCheck: true,
			HealthCheckPath:   "/health",
			CORS: CORSConfig{
				Enabled:          false,
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization"},
				AllowCredentials: false,
				MaxAge:           86400,
			},
		},
		Providers: []ProviderConfig{
			{
				Name:     "google",
				Priority: 10,
				Enabled:  true,
				CircuitBreaker: CircuitBreakerConfig{
					FailureThreshold:      3,
					ResetTimeout:          30 * time.Second,
					UseExponentialBackoff: true,
					MaxResetTimeout:       10 * time.Minute,
				},
			},
			{
				Name:     "openai",
				Priority: 20,
				Enabled:  true,
				CircuitBreaker: CircuitBreakerConfig{
					FailureThreshold:      3,
					ResetTimeout:          30 * time.Second,
					UseExponentialBackoff: true,
					MaxResetTimeout:       10 * time.Minute,
				},
			},
			{
				Name:     "local-xtts",
				Priority: 90,
				Enabled:  false,
				CircuitBreaker: CircuitBreakerConfig{
					// Terminal offline fallback: never trips open.
					FailureThreshold: DisabledFailureThreshold,
					ResetTimeout:     30 * time.Second,
				},
			},
		},
		Google: GoogleConfig{
			Voice:             "cs-CZ-Wavenet-A",
			AudioEncoding:     "MP3",
			SpeakingRate:      1.0,
			Pitch:             0,
			VolumeGainDb:      0,
			Timeout:           30 * time.Second,
			RateLimitCooldown: 1 * time.Hour,
			QuotaCooldown:     24 * time.Hour,
		},
		OpenAI: OpenAIConfig{
			APIKeySecret: "OPENAI_API_KEY",
			Model:        "tts-1",
			Voice:        "alloy",
			Timeout:      60 * time.Second,
		},
		Local: LocalConfig{
			PythonPath: "python3",
			Language:   "cs",
			Device:     "cpu",
			Timeout:    5 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			MetricsEnabled: true,
			TracingEnabled: true,
			SamplingRate:   1.0,
			Insecure:       true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			TimeFormat: time.RFC3339Nano,
		},
		Development: DevelopmentConfig{
			Enabled:      false,
			DebugLogging: false,
			PrettyLogs:   false,
		},
	}

	// Detect environment and adjust defaults
	cfg.DetectEnvironment()

	return cfg
}

// DetectEnvironment automatically adjusts configuration based on the detected environment.
// This method is called automatically by DefaultConfig() and should not be called directly
// unless you're implementing custom environment detection logic.
//
// Detection criteria:
//   - Kubernetes: KUBERNETES_SERVICE_HOST environment variable is set
//   - Local: No Kubernetes environment variables detected
func (c *Config) DetectEnvironment() {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		// Kubernetes environment detected
		c.Address = "0.0.0.0"     // Bind to all interfaces in K8s
		c.Logging.Format = "json" // Structured logs for K8s
	} else {
		// Local development environment
		c.Address = "localhost"

		// Enable development mode for local
		if os.Getenv("VOX_DEV_MODE") == "" {
			c.Development.Enabled = true
			c.Development.PrettyLogs = true
			c.Logging.Format = "text" // Human-readable logs
		}
	}
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables take precedence over defaults but are overridden by functional options.
//
// Variable naming convention:
//   - Library-specific: VOX_<SETTING>
//   - Standard variables: OPENAI_API_KEY, OTEL_EXPORTER_OTLP_ENDPOINT
//
// Returns an error if environment variables contain invalid values.
func (c *Config) LoadFromEnv() error {
	// Core settings
	if v := os.Getenv("VOX_SERVICE_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("VOX_SERVICE_ID"); v != "" {
		c.ID = v
	}
	if v := os.Getenv("VOX_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("VOX_ADDRESS"); v != "" {
		c.Address = v
	}

	// HTTP settings
	if v := os.Getenv("VOX_HTTP_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTP.ReadTimeout = d
		}
	}
	if v := os.Getenv("VOX_HTTP_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTP.WriteTimeout = d
		}
	}
	if v := os.Getenv("VOX_HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTP.ShutdownTimeout = d
		}
	}

	// CORS settings
	if v := os.Getenv("VOX_CORS_ENABLED"); v != "" {
		c.HTTP.CORS.Enabled = parseBool(v)
	}
	if v := os.Getenv("VOX_CORS_ORIGINS"); v != "" {
		c.HTTP.CORS.AllowedOrigins = parseStringList(v)
	}
	if v := os.Getenv("VOX_CORS_METHODS"); v != "" {
		c.HTTP.CORS.AllowedMethods = parseStringList(v)
	}
	if v := os.Getenv("VOX_CORS_HEADERS"); v != "" {
		c.HTTP.CORS.AllowedHeaders = parseStringList(v)
	}
	if v := os.Getenv("VOX_CORS_CREDENTIALS"); v != "" {
		c.HTTP.CORS.AllowCredentials = parseBool(v)
	}

	// Google settings
	if v := os.Getenv("VOX_GOOGLE_API_KEY_SECRETS"); v != "" {
		c.Google.APIKeySecrets = parseStringList(v)
	}
	if v := os.Getenv("VOX_GOOGLE_VOICE"); v != "" {
		c.Google.Voice = v
	}
	if v := os.Getenv("VOX_GOOGLE_AUDIO_ENCODING"); v != "" {
		c.Google.AudioEncoding = v
	}
	if v := os.Getenv("VOX_GOOGLE_SPEAKING_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Google.SpeakingRate = f
		}
	}
	if v := os.Getenv("VOX_GOOGLE_PITCH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Google.Pitch = f
		}
	}
	if v := os.Getenv("VOX_GOOGLE_VOLUME_GAIN_DB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Google.VolumeGainDb = f
		}
	}
	if v := os.Getenv("VOX_GOOGLE_SAMPLE_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Google.SampleRateHertz = n
		}
	}
	if v := os.Getenv("VOX_GOOGLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Google.Timeout = d
		}
	}
	if v := os.Getenv("VOX_GOOGLE_RATE_LIMIT_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Google.RateLimitCooldown = d
		}
	}
	if v := os.Getenv("VOX_GOOGLE_QUOTA_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Google.QuotaCooldown = d
		}
	}

	// OpenAI settings
	if v := os.Getenv("VOX_OPENAI_API_KEY_SECRET"); v != "" {
		c.OpenAI.APIKeySecret = v
	}
	if v := os.Getenv("VOX_OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("VOX_OPENAI_VOICE"); v != "" {
		c.OpenAI.Voice = v
	}
	if v := os.Getenv("VOX_OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("VOX_OPENAI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.OpenAI.Timeout = d
		}
	}

	// Local XTTS settings
	if v := os.Getenv("VOX_LOCAL_PYTHON"); v != "" {
		c.Local.PythonPath = v
	}
	if v := os.Getenv("VOX_LOCAL_SCRIPT"); v != "" {
		c.Local.ScriptPath = v
	}
	if v := os.Getenv("VOX_LOCAL_BASE_MODEL"); v != "" {
		c.Local.BaseModelPath = v
	}
	if v := os.Getenv("VOX_LOCAL_CHECKPOINT"); v != "" {
		c.Local.CheckpointPath = v
	}
	if v := os.Getenv("VOX_LOCAL_REFERENCE_AUDIO"); v != "" {
		c.Local.ReferenceAudio = v
	}
	if v := os.Getenv("VOX_LOCAL_OUTPUT_DIR"); v != "" {
		c.Local.OutputDir = v
	}
	if v := os.Getenv("VOX_LOCAL_LANGUAGE"); v != "" {
		c.Local.Language = v
	}
	if v := os.Getenv("VOX_LOCAL_DEVICE"); v != "" {
		c.Local.Device = v
	}
	if v := os.Getenv("VOX_LOCAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Local.Timeout = d
		}
	}

	// Telemetry settings
	if v := os.Getenv("VOX_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("VOX_OTEL_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	} else if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("VOX_TELEMETRY_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv("VOX_METRICS_ENABLED"); v != "" {
		c.Telemetry.MetricsEnabled = parseBool(v)
	}
	if v := os.Getenv("VOX_TRACING_ENABLED"); v != "" {
		c.Telemetry.TracingEnabled = parseBool(v)
	}
	if v := os.Getenv("VOX_TRACE_SAMPLING_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Telemetry.SamplingRate = f
		}
	}
	if v := os.Getenv("VOX_OTEL_INSECURE"); v != "" {
		c.Telemetry.Insecure = parseBool(v)
	}

	// Logging settings
	if v := os.Getenv("VOX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VOX_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("VOX_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}

	// Development settings
	if v := os.Getenv("VOX_DEV_MODE"); v != "" {
		c.Development.Enabled = parseBool(v)
	}
	if v := os.Getenv("VOX_DEBUG"); v != "" {
		c.Development.DebugLogging = parseBool(v)
	}
	if v := os.Getenv("VOX_PRETTY_LOGS"); v != "" {
		c.Development.PrettyLogs = parseBool(v)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
// File values override defaults but are themselves overridden by
// environment variables and functional options when loaded through
// WithConfigFile.
//
// Example file (YAML):
//
//	name: narrator
//	providers:
//	  - name: google
//	    priority: 10
//	    enabled: true
//	google:
//	  api_key_secrets: [TTS_KEY_1, TTS_KEY_2]
func (c *Config) LoadFromFile(path string) error {
	// Clean the path to prevent directory traversal attacks
	cleanPath := filepath.Clean(path)

	// Verify the file has a safe extension
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config file extension %s: %w", ext, ErrInvalidConfiguration)
	}

	// Check if the path is absolute and within expected directories
	if !filepath.IsAbs(cleanPath) {
		// If relative, resolve it relative to current directory
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		cleanPath = filepath.Join(wd, cleanPath)
	}

	// Read the file with the cleaned path
	data, err := os.ReadFile(filepath.Clean(cleanPath)) // nosec G304 -- path is validated
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	// Parse based on extension
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", ErrInvalidConfiguration)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", ErrInvalidConfiguration)
		}
	}

	return nil
}

// ResolveSecret resolves a symbolic secret name to its value.
// The Secrets map is checked first, then the process environment.
// Returns an error wrapping ErrMissingConfiguration when the name
// resolves to nothing, so misconfigured deployments fail at startup
// instead of at synthesis time.
func (c *Config) ResolveSecret(name string) (string, error) {
	if name == "" {
		return "", &SynthesisError{
			Op:      "Config.ResolveSecret",
			Kind:    "config",
			Message: "secret name is empty",
			Err:     ErrMissingConfiguration,
		}
	}
	if v, ok := c.Secrets[name]; ok && v != "" {
		return v, nil
	}
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	return "", &SynthesisError{
		Op:      "Config.ResolveSecret",
		Kind:    "config",
		Message: fmt.Sprintf("secret %q is not set in secrets map or environment", name),
		Err:     ErrMissingConfiguration,
	}
}

// ProviderByName returns the configuration entry for the named provider
// (case-insensitive) and whether it was found.
func (c *Config) ProviderByName(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Validate checks if the configuration is valid and returns an error if not.
// This method is called automatically by NewConfig() but can also be called
// manually after modifying configuration.
//
// Validation rules:
//   - Port must be between 1 and 65535
//   - Service name is required
//   - Provider names must be unique (case-insensitive)
//   - Breaker reset timeouts must be positive
//   - Google/OpenAI numeric settings must be inside API-accepted ranges
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &SynthesisError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: fmt.Sprintf("invalid port: %d", c.Port),
			Err:     ErrInvalidConfiguration,
		}
	}

	if c.Name == "" {
		return &SynthesisError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: "service name is required",
			Err:     ErrMissingConfiguration,
		}
	}

	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		key := strings.ToLower(p.Name)
		if seen[key] {
			return &SynthesisError{
				Op:      "Config.Validate",
				Kind:    "config",
				Message: fmt.Sprintf("duplicate provider %q", p.Name),
				Err:     ErrInvalidConfiguration,
			}
		}
		seen[key] = true

		if p.CircuitBreaker.ResetTimeout < 0 {
			return &SynthesisError{
				Op:      "Config.Validate",
				Kind:    "config",
				Message: fmt.Sprintf("provider %q: reset timeout must not be negative", p.Name),
				Err:     ErrInvalidConfiguration,
			}
		}
		if p.CircuitBreaker.UseExponentialBackoff && p.CircuitBreaker.MaxResetTimeout < p.CircuitBreaker.ResetTimeout {
			return &SynthesisError{
				Op:      "Config.Validate",
				Kind:    "config",
				Message: fmt.Sprintf("provider %q: max reset timeout must not be below reset timeout", p.Name),
				Err:     ErrInvalidConfiguration,
			}
		}
	}

	if err := validate.Struct(c); err != nil {
		return &SynthesisError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: err.Error(),
			Err:     ErrInvalidConfiguration,
		}
	}

	return nil
}

// Helper functions

// parseStringList splits a comma-separated string into a slice of strings.
// Whitespace is trimmed from each element, and empty strings are filtered out.
// Example: "a, b, c" -> ["a", "b", "c"]
func parseStringList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseBool converts a string to a boolean value.
// Accepts: "true", "1", "yes", "on" (case-insensitive) as true.
// Everything else is false.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Functional Options

// WithName sets the service name used in logging and telemetry.
// If not set, defaults to "voxchain".
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		return nil
	}
}

// WithPort sets the HTTP server port.
// Must be between 1 and 65535.
// Returns an error if the port is invalid.
func WithPort(port int) Option {
	return func(c *Config) error {
		if port < 1 || port > 65535 {
			return &SynthesisError{
				Op:      "WithPort",
				Kind:    "config",
				Message: fmt.Sprintf("invalid port: %d", port),
				Err:     ErrInvalidConfiguration,
			}
		}
		c.Port = port
		return nil
	}
}

// WithAddress sets the bind address for the HTTP server.
// Common values:
//   - "localhost" or "127.0.0.1" for local only
//   - "0.0.0.0" for all interfaces (required in containers)
func WithAddress(address string) Option {
	return func(c *Config) error {
		c.Address = address
		return nil
	}
}

// WithCORS configures CORS with the specified origins and credentials policy.
// This enables CORS with the given origins while keeping default methods and headers.
func WithCORS(origins []string, credentials bool) Option {
	return func(c *Config) error {
		c.HTTP.CORS.Enabled = true
		c.HTTP.CORS.AllowedOrigins = origins
		c.HTTP.CORS.AllowCredentials = credentials
		return nil
	}
}

// WithProviders replaces the provider chain configuration wholesale.
// Use WithProvider to adjust a single entry instead.
func WithProviders(providers []ProviderConfig) Option {
	return func(c *Config) error {
		c.Providers = providers
		return nil
	}
}

// WithProvider adds or replaces a single provider entry, matched by
// name case-insensitively.
func WithProvider(p ProviderConfig) Option {
	return func(c *Config) error {
		if p.Name == "" {
			return &SynthesisError{
				Op:      "WithProvider",
				Kind:    "config",
				Message: "provider name is required",
				Err:     ErrInvalidConfiguration,
			}
		}
		for i := range c.Providers {
			if strings.EqualFold(c.Providers[i].Name, p.Name) {
				c.Providers[i] = p
				return nil
			}
		}
		c.Providers = append(c.Providers, p)
		return nil
	}
}

// WithProviderEnabled toggles a configured provider without touching
// its priority or breaker settings.
func WithProviderEnabled(name string, enabled bool) Option {
	return func(c *Config) error {
		for i := range c.Providers {
			if strings.EqualFold(c.Providers[i].Name, name) {
				c.Providers[i].Enabled = enabled
				return nil
			}
		}
		return &SynthesisError{
			Op:      "WithProviderEnabled",
			Kind:    "config",
			Message: fmt.Sprintf("unknown provider %q", name),
			Err:     ErrProviderNotFound,
		}
	}
}

// WithGoogleAPIKeySecrets sets the symbolic secret names for the Google
// key pool. Names are resolved via Config.ResolveSecret when the client
// is constructed; pass names, not key material.
func WithGoogleAPIKeySecrets(secrets ...string) Option {
	return func(c *Config) error {
		c.Google.APIKeySecrets = secrets
		return nil
	}
}

// WithGoogleVoice sets the default Google voice, e.g. "cs-CZ-Wavenet-A".
// The synthesis language is derived from the voice name.
func WithGoogleVoice(voice string) Option {
	return func(c *Config) error {
		c.Google.Voice = voice
		return nil
	}
}

// WithGoogleAudioEncoding sets the Google output encoding.
// Accepted values: MP3, LINEAR16, OGG_OPUS.
func WithGoogleAudioEncoding(encoding string) Option {
	return func(c *Config) error {
		switch encoding {
		case "MP3", "LINEAR16", "OGG_OPUS":
			c.Google.AudioEncoding = encoding
			return nil
		default:
			return &SynthesisError{
				Op:      "WithGoogleAudioEncoding",
				Kind:    "config",
				Message: fmt.Sprintf("unsupported audio encoding %q", encoding),
				Err:     ErrInvalidConfiguration,
			}
		}
	}
}

// WithOpenAIAPIKeySecret sets the symbolic secret name for the OpenAI key.
func WithOpenAIAPIKeySecret(secret string) Option {
	return func(c *Config) error {
		c.OpenAI.APIKeySecret = secret
		return nil
	}
}

// WithSecret adds one entry to the secrets map, overriding any
// same-named environment variable during resolution.
func WithSecret(name, value string) Option {
	return func(c *Config) error {
		if c.Secrets == nil {
			c.Secrets = make(map[string]string)
		}
		c.Secrets[name] = value
		return nil
	}
}

// WithTelemetry enables telemetry export to the given OTLP endpoint.
func WithTelemetry(enabled bool, endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = enabled
		if endpoint != "" {
			c.Telemetry.Endpoint = endpoint
		}
		return nil
	}
}

// WithLogLevel sets the minimum logging level.
// Valid levels: debug, info, warn, error.
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "error":
			c.Logging.Level = strings.ToLower(level)
			return nil
		default:
			return &SynthesisError{
				Op:      "WithLogLevel",
				Kind:    "config",
				Message: fmt.Sprintf("invalid log level: %s", level),
				Err:     ErrInvalidConfiguration,
			}
		}
	}
}

// WithLogFormat sets the log output format.
// Valid formats: json (production), text (development).
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		switch strings.ToLower(format) {
		case "json", "text":
			c.Logging.Format = strings.ToLower(format)
			return nil
		default:
			return &SynthesisError{
				Op:      "WithLogFormat",
				Kind:    "config",
				Message: fmt.Sprintf("invalid log format: %s", format),
				Err:     ErrInvalidConfiguration,
			}
		}
	}
}

// WithDevelopmentMode enables or disables development mode, which
// switches on pretty text logs and debug logging.
func WithDevelopmentMode(enabled bool) Option {
	return func(c *Config) error {
		c.Development.Enabled = enabled
		if enabled {
			c.Development.PrettyLogs = true
			c.Development.DebugLogging = true
			c.Logging.Format = "text"
			c.Logging.Level = "debug"
		}
		return nil
	}
}

// WithConfigFile loads configuration from the given JSON or YAML file.
// File values are applied at option time, so later options still win.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		return c.LoadFromFile(path)
	}
}

// NewConfig creates a new configuration with the provided options.
// Configuration is applied in the following order:
//  1. Default values from DefaultConfig()
//  2. Environment variables via LoadFromEnv()
//  3. Functional options (highest priority)
//  4. Validation via Validate()
//
// Returns an error if any option fails or if the final configuration is invalid.
//
// Example:
//
//	cfg, err := NewConfig(
//	    WithName("narrator"),
//	    WithGoogleAPIKeySecrets("TTS_KEY_1", "TTS_KEY_2"),
//	)
//	if err != nil {
//	    return err
//	}
func NewConfig(opts ...Option) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Load from environment first
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	// Apply functional options (these override env vars)
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
