// Package httpserver owns the HTTP surface around the signaling socket:
// health and readiness probes, build info, and the ICE configuration endpoint
// browser clients fetch before opening peer connections.
package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/openmeet/signal-relay/internal/config"
	"github.com/openmeet/signal-relay/internal/turnrest"
)

var ErrServerClosed = http.ErrServerClosed

type BuildInfo struct {
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
}

type Server struct {
	log   *slog.Logger
	cfg   config.Config
	build BuildInfo

	// turnREST stamps ephemeral credentials onto TURN entries of the ICE
	// config; nil when no shared secret is configured.
	turnREST *turnrest.Generator

	ready atomic.Bool

	mux *http.ServeMux
	srv *http.Server
}

func New(cfg config.Config, logger *slog.Logger, build BuildInfo) (*Server, error) {
	s := &Server{
		log:   logger,
		cfg:   cfg,
		build: build,
		mux:   http.NewServeMux(),
	}

	if cfg.TURNRESTSharedSecret != "" {
		gen, err := turnrest.NewGenerator(turnrest.Config{
			SharedSecret:   cfg.TURNRESTSharedSecret,
			TTLSeconds:     cfg.TURNRESTTTLSeconds,
			UsernamePrefix: cfg.TURNRESTUsernamePrefix,
		})
		if err != nil {
			return nil, err
		}
		s.turnREST = gen
	}

	s.registerRoutes()

	handler := chain(s.mux,
		recoverMiddleware(s.log),
		requestIDMiddleware(),
		requestLoggerMiddleware(s.log),
	)

	s.srv = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
		// No global read/write timeouts: the signaling socket is a long-lived
		// upgraded connection.
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s, nil
}

// Mux returns the underlying ServeMux for registering additional routes.
// It must only be used during startup before Serve is called.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) Serve(l net.Listener) error {
	s.ready.Store(true)
	s.log.Info("http server serving", "addr", l.Addr().String())
	return s.srv.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	return s.srv.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.ready.Store(false)
	return s.srv.Close()
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	s.mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ready": true})
	})

	s.mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, s.build)
	})

	// Preflight never reaches the GET handler; withOriginPolicy answers it.
	s.mux.HandleFunc("OPTIONS /rtc/ice", s.withOriginPolicy(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	s.mux.HandleFunc("GET /rtc/ice", s.withOriginPolicy(func(w http.ResponseWriter, r *http.Request) {
		servers := s.cfg.ICEServers
		if servers == nil {
			servers = []webrtc.ICEServer{}
		}
		if s.turnREST != nil {
			creds, err := s.turnREST.GenerateRandom()
			if err != nil {
				WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to generate credentials"})
				return
			}
			servers = withTURNRESTCredentials(servers, creds.Username, creds.Credential)
			WriteJSON(w, http.StatusOK, map[string]any{
				"iceServers": servers,
				"ttlSeconds": s.turnREST.TTLSeconds(),
			})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"iceServers": servers})
	}))
}

type Middleware func(http.Handler) http.Handler

func chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	h := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func recoverMiddleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic in http handler", "recover", rec, "stack", string(debug.Stack()))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				var buf [16]byte
				if _, err := rand.Read(buf[:]); err == nil {
					reqID = hex.EncodeToString(buf[:])
				}
			}
			if reqID != "" {
				r.Header.Set("X-Request-ID", reqID)
				w.Header().Set("X-Request-ID", reqID)
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func requestLoggerMiddleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r)

			logger.Info("http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"request_id", r.Header.Get("X-Request-ID"),
			)
		})
	}
}

// WriteJSON writes a JSON response body and sets the Content-Type header.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}
