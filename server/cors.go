package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/voxchain/voxchain/core"
)

// CORSMiddleware applies the configured CORS policy and terminates
// preflight OPTIONS requests.
//
// The origin matcher supports:
//   - Wildcard origins ("*" for all origins)
//   - Wildcard subdomains ("*.example.com")
//   - Wildcard ports ("http://localhost:*")
func CORSMiddleware(config *core.CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")

			if isOriginAllowed(origin, config.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)

				if config.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if len(config.AllowedMethods) > 0 {
					w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				}
				if len(config.AllowedHeaders) > 0 {
					w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				}
				if len(config.ExposedHeaders) > 0 {
					w.Header().Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
				}
				if config.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", config.MaxAge))
				}
			}

			// Preflight requests end here, with or without CORS headers
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed reports whether an origin matches the allowed list.
// An empty origin (same-origin request) never matches; CORS headers
// are not needed for same-origin requests.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}

		// Wildcard subdomain (e.g. *.example.com or https://*.example.com)
		if strings.Contains(allowed, "*.") {
			wildcardIdx := strings.Index(allowed, "*.")
			beforeWildcard := allowed[:wildcardIdx]
			afterWildcard := allowed[wildcardIdx+2:]

			if !strings.HasPrefix(origin, beforeWildcard) {
				continue
			}
			if !strings.HasSuffix(origin, afterWildcard) {
				continue
			}

			// The wildcard must stand in for an actual subdomain; the
			// root domain itself does not match.
			remaining := origin[len(beforeWildcard):]
			remaining = strings.TrimSuffix(remaining, afterWildcard)
			if len(remaining) > 0 {
				return true
			}
		}

		// Wildcard port (e.g. http://localhost:*)
		if strings.Contains(allowed, ":*") {
			baseAllowed := strings.Split(allowed, ":*")[0]
			if strings.HasPrefix(origin, baseAllowed+":") {
				return true
			}
		}
	}

	return false
}
