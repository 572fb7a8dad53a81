package httpserver

import (
	"net/http"
	"strings"

	"github.com/openmeet/signal-relay/internal/origin"
)

// OriginMiddleware applies the origin policy to any handler, used for the
// signaling socket route registered outside this package.
func (s *Server) OriginMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.withOriginPolicy(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r)
			})(w, r)
		})
	}
}

func (s *Server) withOriginPolicy(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		originHeader := strings.TrimSpace(r.Header.Get("Origin"))
		if originHeader == "" {
			next(w, r)
			return
		}

		normalizedOrigin, originHost, ok := origin.Normalize(originHeader)
		if !ok || !origin.Allowed(normalizedOrigin, originHost, r.Host, s.cfg.AllowedOrigins) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// Cross-origin frontends are the norm in development; CORS headers are
		// harmless for same-origin requests.
		w.Header().Set("Access-Control-Allow-Origin", normalizedOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
			if requestHeaders := strings.TrimSpace(r.Header.Get("Access-Control-Request-Headers")); requestHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", requestHeaders)
			}
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}
