package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/voxchain/voxchain/core"
	"github.com/voxchain/voxchain/telemetry"
	"github.com/voxchain/voxchain/tts"
)

// Server wraps a provider chain in an HTTP service.
type Server struct {
	config  *core.Config
	chain   *tts.ProviderChain
	logger  core.Logger
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	started    bool
}

// Option configures a Server during construction.
type Option func(*Server)

// WithLogger sets the logger for server decisions and request logs.
// The server logs under the "voxchain/server" component.
func WithLogger(logger core.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New builds a server around the given chain. The config supplies the
// bind address, timeouts, CORS policy and the health check path.
func New(cfg *core.Config, chain *tts.ProviderChain, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, &core.SynthesisError{
			Op:      "server.New",
			Kind:    "config",
			Message: "config must not be nil",
			Err:     core.ErrInvalidConfiguration,
		}
	}
	if chain == nil {
		return nil, &core.SynthesisError{
			Op:      "server.New",
			Kind:    "config",
			Message: "provider chain must not be nil",
			Err:     core.ErrInvalidConfiguration,
		}
	}

	s := &Server{
		config: cfg,
		chain:  chain,
		logger: &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if cl, ok := s.logger.(core.ComponentAwareLogger); ok {
		s.logger = cl.WithComponent("voxchain/server")
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/synthesize", s.handleSynthesize).Methods(http.MethodPost)
	router.HandleFunc("/api/providers", s.handleProviders).Methods(http.MethodGet)

	if cfg.HTTP.EnableHealthCheck {
		healthPath := cfg.HTTP.HealthCheckPath
		if healthPath == "" {
			healthPath = "/health"
		}
		router.HandleFunc(healthPath, s.handleHealth).Methods(http.MethodGet)
		router.HandleFunc(healthPath+"/telemetry", telemetry.HealthHandler).Methods(http.MethodGet)
	}

	// Request IDs outermost so every response carries one, CORS next so
	// preflights terminate before request logging.
	var handler http.Handler = router
	handler = s.loggingMiddleware(handler)
	if cfg.HTTP.CORS.Enabled {
		handler = CORSMiddleware(&cfg.HTTP.CORS)(handler)
	}
	handler = RequestIDMiddleware(handler)
	s.handler = handler

	return s, nil
}

// Handler returns the fully wrapped HTTP handler. Useful for tests and
// for mounting the service under an existing server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the HTTP server on the configured address and blocks
// until the server stops. The returned error is http.ErrServerClosed
// after a clean Shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	if s.config.Address == "" {
		addr = fmt.Sprintf(":%d", s.config.Port)
	}

	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.handler,
		ReadTimeout:    s.config.HTTP.ReadTimeout,
		WriteTimeout:   s.config.HTTP.WriteTimeout,
		IdleTimeout:    s.config.HTTP.IdleTimeout,
		MaxHeaderBytes: s.config.HTTP.MaxHeaderBytes,
	}

	s.started = true
	s.mu.Unlock() // Unlock before blocking ListenAndServe call

	s.logger.Info("Starting HTTP server", map[string]interface{}{
		"operation": "server_start",
		"address":   addr,
		"cors":      s.config.HTTP.CORS.Enabled,
	})

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, waiting up to the configured
// shutdown timeout for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}

	shutdownCtx := ctx
	if s.config.HTTP.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.config.HTTP.ShutdownTimeout)
		defer cancel()
	}

	s.logger.Info("Shutting down HTTP server", map[string]interface{}{
		"operation": "server_shutdown",
	})

	s.started = false
	return s.httpServer.Shutdown(shutdownCtx)
}
