package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/openmeet/signal-relay/internal/config"
	"github.com/openmeet/signal-relay/internal/httpserver"
	"github.com/openmeet/signal-relay/internal/metrics"
	"github.com/openmeet/signal-relay/internal/relay"
	"github.com/openmeet/signal-relay/internal/signaling"
)

var (
	// Set via -ldflags at build time. Values may be empty in local/dev builds.
	buildCommit = ""
	buildTime   = ""
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	logger.Info("starting openmeet-signal-relay",
		"listen_addr", cfg.ListenAddr,
		"public_base_url", cfg.PublicBaseURL,
		"mode", cfg.Mode,
		"auth_mode", cfg.AuthMode,
		"send_queue_size", cfg.SendQueueSize,
		"max_chat_history_per_room", cfg.MaxChatHistoryPerRoom,
		"max_signaling_message_bytes", cfg.MaxSignalingMessageBytes,
		"max_signaling_messages_per_second", cfg.MaxSignalingMessagesPerSecond,
		"ice_servers", len(cfg.ICEServers),
		"turn_rest_enabled", cfg.TURNRESTSharedSecret != "",
	)

	logStartupSecurityWarnings(logger, cfg)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to listen", "err", err)
		os.Exit(1)
	}

	commit, built := resolveBuildInfo(buildCommit, buildTime)
	srv, err := httpserver.New(cfg, logger, httpserver.BuildInfo{Commit: commit, BuildTime: built})
	if err != nil {
		logger.Error("failed to configure http server", "err", err)
		os.Exit(2)
	}

	m := metrics.New()
	coordinator := relay.NewCoordinator(relay.Config{
		Logger:                logger,
		Metrics:               m,
		MaxChatHistoryPerRoom: cfg.MaxChatHistoryPerRoom,
	})

	ws, err := signaling.NewWebSocketServer(cfg, coordinator, m, logger)
	if err != nil {
		logger.Error("failed to configure signaling", "err", err)
		os.Exit(2)
	}
	srv.Mux().Handle("GET /rtc/signal", srv.OriginMiddleware()(ws))

	// Expose internal counters in Prometheus' text format.
	srv.Mux().Handle("GET /metrics", metrics.PrometheusHandler(m))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server exited", "err", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "err", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server exited after shutdown", "err", err)
		os.Exit(1)
	}
}

func resolveBuildInfo(commit, buildTime string) (string, string) {
	// Prefer ldflags-injected values (production builds) but fall back to the Go
	// build info when available (useful for `go run` / dev builds).
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if buildTime == "" {
					buildTime = s.Value
				}
			}
		}
	}

	return commit, buildTime
}
