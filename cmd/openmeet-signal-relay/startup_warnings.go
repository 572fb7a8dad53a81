package main

import (
	"log/slog"

	"github.com/openmeet/signal-relay/internal/config"
)

func logStartupSecurityWarnings(logger *slog.Logger, cfg config.Config) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.AuthMode == config.AuthModeNone && cfg.Mode == config.ModeProd {
		logger.Warn("startup security warning: AUTH_MODE=none disables signaling authentication",
			"warning_code", "auth_mode_none",
			"auth_mode", cfg.AuthMode,
			"mode", cfg.Mode,
		)
	}

	if containsString(cfg.AllowedOrigins, "*") {
		logger.Warn("startup security warning: ALLOWED_ORIGINS contains '*' (allows any origin)",
			"warning_code", "allowed_origins_wildcard",
			"allowed_origins", cfg.AllowedOrigins,
			"mode", cfg.Mode,
		)
	}

	if cfg.Mode == config.ModeProd && len(cfg.ICEServers) == 0 {
		logger.Warn("startup warning: no ICE servers configured (calls across NATs will fail without STUN/TURN)",
			"warning_code", "no_ice_servers",
			"mode", cfg.Mode,
		)
	}

	if cfg.Mode == config.ModeProd && cfg.MaxChatHistoryPerRoom <= 0 {
		logger.Warn("startup warning: MAX_CHAT_HISTORY_PER_ROOM is unset/0 (chat history grows unbounded for long-lived rooms)",
			"warning_code", "chat_history_unbounded_in_prod",
			"max_chat_history_per_room", cfg.MaxChatHistoryPerRoom,
			"mode", cfg.Mode,
		)
	}
}

func containsString(xs []string, v string) bool {
	for _, s := range xs {
		if s == v {
			return true
		}
	}
	return false
}
