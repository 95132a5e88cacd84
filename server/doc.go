// Package server exposes a synthesis chain over HTTP.
//
// The service is a thin facade: POST /api/synthesize runs the chain
// and streams the audio back, GET /api/providers reports provider and
// circuit state, and GET /health answers liveness probes. All chain
// semantics (ordering, failover, breakers) live in the tts package;
// the server only translates them to HTTP status codes.
//
//	cfg, _ := core.NewConfig(core.WithPort(8080))
//	chain, _ := tts.NewChainFromConfig(cfg, tts.NewDependencies(cfg))
//	srv, _ := server.New(cfg, chain)
//	go func() { _ = srv.Start() }()
//	defer srv.Shutdown(context.Background())
package server
