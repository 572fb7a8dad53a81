package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/openmeet/signal-relay/internal/origin"
)

const (
	envVarListenAddr      = "MEET_RELAY_LISTEN_ADDR"
	envVarPublicBaseURL   = "MEET_RELAY_PUBLIC_BASE_URL"
	envVarMode            = "MEET_RELAY_MODE"
	envVarLogFormat       = "MEET_RELAY_LOG_FORMAT"
	envVarLogLevel        = "MEET_RELAY_LOG_LEVEL"
	envVarShutdownTimeout = "MEET_RELAY_SHUTDOWN_TIMEOUT"
	envVarAllowedOrigins  = "ALLOWED_ORIGINS"

	// Signaling socket auth + hardening.
	envVarAuthMode                      = "AUTH_MODE"
	envVarAPIKey                        = "API_KEY"
	envVarJWTSecret                     = "JWT_SECRET"
	envVarSignalingAuthTimeout          = "SIGNALING_AUTH_TIMEOUT"
	envVarSignalingWSIdleTimeout        = "SIGNALING_WS_IDLE_TIMEOUT"
	envVarSignalingWSPingInterval       = "SIGNALING_WS_PING_INTERVAL"
	envVarMaxSignalingMessageBytes      = "MAX_SIGNALING_MESSAGE_BYTES"
	envVarMaxSignalingMessagesPerSecond = "MAX_SIGNALING_MESSAGES_PER_SECOND"

	// Relay core knobs.
	envVarSendQueueSize         = "SEND_QUEUE_SIZE"
	envVarMaxChatHistoryPerRoom = "MAX_CHAT_HISTORY_PER_ROOM"

	// coturn TURN REST (ephemeral) credentials.
	envVarTURNRESTSharedSecret   = "TURN_REST_SHARED_SECRET"
	envVarTURNRESTTTLSeconds     = "TURN_REST_TTL_SECONDS"
	envVarTURNRESTUsernamePrefix = "TURN_REST_USERNAME_PREFIX"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type AuthMode string

const (
	AuthModeNone   AuthMode = "none"
	AuthModeAPIKey AuthMode = "api_key"
	AuthModeJWT    AuthMode = "jwt"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

const (
	DefaultListenAddr      = "127.0.0.1:8080"
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMode            = ModeDev

	// DefaultAuthMode is none: user identity belongs to the account service,
	// which this relay never talks to. The gate exists for deployments that
	// want the socket itself behind a shared key or JWT.
	DefaultAuthMode = AuthModeNone

	DefaultSignalingAuthTimeout          = 2 * time.Second
	DefaultSignalingWSIdleTimeout        = 60 * time.Second
	DefaultSignalingWSPingInterval       = 20 * time.Second
	DefaultMaxSignalingMessageBytes      = int64(64 * 1024)
	DefaultMaxSignalingMessagesPerSecond = 50

	// DefaultSendQueueSize is the per-connection outbound event buffer. A full
	// queue means a slow client; further events to it are dropped, never queued
	// unboundedly and never allowed to stall the coordinator.
	DefaultSendQueueSize = 64

	// DefaultMaxChatHistoryPerRoom of 0 keeps the full log for the room's
	// lifetime so late joiners replay every message.
	DefaultMaxChatHistoryPerRoom = 0

	DefaultTURNRESTTTLSeconds     int64 = 3600
	DefaultTURNRESTUsernamePrefix       = "meet"
)

type Config struct {
	ListenAddr    string
	PublicBaseURL string
	Mode          Mode

	LogFormat LogFormat
	LogLevel  slog.Level

	ShutdownTimeout time.Duration

	// AllowedOrigins holds normalized origins (or "*"). Empty means same-host
	// only.
	AllowedOrigins []string

	AuthMode  AuthMode
	APIKey    string
	JWTSecret string

	SignalingAuthTimeout          time.Duration
	SignalingWSIdleTimeout        time.Duration
	SignalingWSPingInterval       time.Duration
	MaxSignalingMessageBytes      int64
	MaxSignalingMessagesPerSecond int

	SendQueueSize         int
	MaxChatHistoryPerRoom int

	// ICEServers is handed to browsers for RTCPeerConnection construction via
	// GET /rtc/ice. The relay itself never opens a peer connection.
	ICEServers []webrtc.ICEServer

	TURNRESTSharedSecret   string
	TURNRESTTTLSeconds     int64
	TURNRESTUsernamePrefix string
}

// Load reads configuration from the environment with flag overrides.
func Load(args []string) (Config, error) {
	lookup := os.LookupEnv

	cfg := Config{
		ListenAddr:    envOrDefault(lookup, envVarListenAddr, DefaultListenAddr),
		PublicBaseURL: envOrDefault(lookup, envVarPublicBaseURL, ""),
		Mode:          Mode(strings.ToLower(envOrDefault(lookup, envVarMode, string(DefaultMode)))),

		AuthMode:  AuthMode(strings.ToLower(envOrDefault(lookup, envVarAuthMode, string(DefaultAuthMode)))),
		APIKey:    envOrDefault(lookup, envVarAPIKey, ""),
		JWTSecret: envOrDefault(lookup, envVarJWTSecret, ""),

		TURNRESTSharedSecret:   envOrDefault(lookup, envVarTURNRESTSharedSecret, ""),
		TURNRESTUsernamePrefix: envOrDefault(lookup, envVarTURNRESTUsernamePrefix, DefaultTURNRESTUsernamePrefix),
	}

	var err error
	if cfg.ShutdownTimeout, err = envDurationOrDefault(lookup, envVarShutdownTimeout, DefaultShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SignalingAuthTimeout, err = envDurationOrDefault(lookup, envVarSignalingAuthTimeout, DefaultSignalingAuthTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SignalingWSIdleTimeout, err = envDurationOrDefault(lookup, envVarSignalingWSIdleTimeout, DefaultSignalingWSIdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SignalingWSPingInterval, err = envDurationOrDefault(lookup, envVarSignalingWSPingInterval, DefaultSignalingWSPingInterval); err != nil {
		return Config{}, err
	}

	maxMsgBytes, err := envIntOrDefault(lookup, envVarMaxSignalingMessageBytes, int(DefaultMaxSignalingMessageBytes))
	if err != nil {
		return Config{}, err
	}
	cfg.MaxSignalingMessageBytes = int64(maxMsgBytes)

	if cfg.MaxSignalingMessagesPerSecond, err = envIntOrDefault(lookup, envVarMaxSignalingMessagesPerSecond, DefaultMaxSignalingMessagesPerSecond); err != nil {
		return Config{}, err
	}
	if cfg.SendQueueSize, err = envIntOrDefault(lookup, envVarSendQueueSize, DefaultSendQueueSize); err != nil {
		return Config{}, err
	}
	if cfg.MaxChatHistoryPerRoom, err = envIntOrDefault(lookup, envVarMaxChatHistoryPerRoom, DefaultMaxChatHistoryPerRoom); err != nil {
		return Config{}, err
	}

	ttl, err := envIntOrDefault(lookup, envVarTURNRESTTTLSeconds, int(DefaultTURNRESTTTLSeconds))
	if err != nil {
		return Config{}, err
	}
	cfg.TURNRESTTTLSeconds = int64(ttl)

	if cfg.AllowedOrigins, err = parseAllowedOrigins(envOrDefault(lookup, envVarAllowedOrigins, "")); err != nil {
		return Config{}, err
	}

	if cfg.ICEServers, err = parseICEServersFromEnv(lookup, cfg.TURNRESTSharedSecret != ""); err != nil {
		return Config{}, err
	}

	logFormatDefault := LogFormatText
	if cfg.Mode == ModeProd {
		logFormatDefault = LogFormatJSON
	}
	logFormat := envOrDefault(lookup, envVarLogFormat, string(logFormatDefault))
	logLevel := envOrDefault(lookup, envVarLogLevel, "info")

	fs := flag.NewFlagSet("openmeet-signal-relay", flag.ContinueOnError)
	fs.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "TCP listen address")
	fs.StringVar((*string)(&cfg.Mode), "mode", string(cfg.Mode), "deployment mode (dev|prod)")
	fs.StringVar(&logFormat, "log-format", logFormat, "log format (text|json)")
	fs.StringVar(&logLevel, "log-level", logLevel, "log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.LogFormat = LogFormat(strings.ToLower(strings.TrimSpace(logFormat)))
	if cfg.LogLevel, err = parseLogLevel(logLevel); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Mode {
	case ModeDev, ModeProd:
	default:
		return fmt.Errorf("%s: unsupported mode %q", envVarMode, c.Mode)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%s: unsupported log format %q", envVarLogFormat, c.LogFormat)
	}

	switch c.AuthMode {
	case AuthModeNone:
	case AuthModeAPIKey:
		if c.APIKey == "" {
			return fmt.Errorf("%s is required when %s=%s", envVarAPIKey, envVarAuthMode, AuthModeAPIKey)
		}
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("%s is required when %s=%s", envVarJWTSecret, envVarAuthMode, AuthModeJWT)
		}
	default:
		return fmt.Errorf("%s: unsupported auth mode %q", envVarAuthMode, c.AuthMode)
	}

	if c.SignalingAuthTimeout <= 0 {
		return fmt.Errorf("%s must be > 0", envVarSignalingAuthTimeout)
	}
	if c.SignalingWSIdleTimeout <= 0 {
		return fmt.Errorf("%s must be > 0", envVarSignalingWSIdleTimeout)
	}
	if c.SignalingWSPingInterval <= 0 || c.SignalingWSPingInterval >= c.SignalingWSIdleTimeout {
		return fmt.Errorf("%s must be > 0 and below %s", envVarSignalingWSPingInterval, envVarSignalingWSIdleTimeout)
	}
	if c.MaxSignalingMessageBytes <= 0 {
		return fmt.Errorf("%s must be > 0", envVarMaxSignalingMessageBytes)
	}
	if c.MaxSignalingMessagesPerSecond <= 0 {
		return fmt.Errorf("%s must be > 0", envVarMaxSignalingMessagesPerSecond)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("%s must be > 0", envVarSendQueueSize)
	}
	if c.MaxChatHistoryPerRoom < 0 {
		return fmt.Errorf("%s must be >= 0", envVarMaxChatHistoryPerRoom)
	}

	if c.TURNRESTSharedSecret != "" {
		if c.TURNRESTTTLSeconds <= 0 {
			return fmt.Errorf("%s must be > 0", envVarTURNRESTTTLSeconds)
		}
		if c.TURNRESTUsernamePrefix == "" || strings.ContainsRune(c.TURNRESTUsernamePrefix, ':') {
			return fmt.Errorf("%s must be non-empty and must not contain ':'", envVarTURNRESTUsernamePrefix)
		}
	}

	return nil
}

func parseAllowedOrigins(raw string) ([]string, error) {
	entries := splitCommaSeparated(raw)
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry == "*" {
			out = append(out, entry)
			continue
		}
		normalized, _, ok := origin.Normalize(entry)
		if !ok {
			return nil, fmt.Errorf("%s: invalid origin %q", envVarAllowedOrigins, entry)
		}
		out = append(out, normalized)
	}
	return out, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%s: unsupported log level %q", envVarLogLevel, raw)
	}
}

func NewLogger(cfg Config) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	switch cfg.LogFormat {
	case LogFormatText:
		handler = slog.NewTextHandler(os.Stdout, opts)
	case LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return slog.New(handler), nil
}

func envOrDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(lookup func(string) (string, bool), key string, fallback int) (int, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func envDurationOrDefault(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func splitCommaSeparated(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
