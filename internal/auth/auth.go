// Package auth gates the signaling WebSocket. It verifies a shared API key or
// an HS256 JWT, depending on AUTH_MODE; AUTH_MODE=none disables the gate.
package auth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/openmeet/signal-relay/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("missing credentials")
)

type Verifier interface {
	Verify(credential string) error
}

// NewVerifier returns nil (no gate) for AUTH_MODE=none.
func NewVerifier(cfg config.Config) (Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeNone:
		return nil, nil
	case config.AuthModeAPIKey:
		return APIKeyVerifier{Expected: cfg.APIKey}, nil
	case config.AuthModeJWT:
		return NewJWTVerifier(cfg.JWTSecret), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
}

// CredentialFromQuery extracts the credential from the upgrade request's query
// string (apiKey= or token=), the fallback for clients that cannot send an
// auth message first.
func CredentialFromQuery(mode config.AuthMode, q url.Values) (string, error) {
	switch mode {
	case config.AuthModeAPIKey:
		if apiKey := q.Get("apiKey"); apiKey != "" {
			return apiKey, nil
		}
		return "", ErrMissingCredentials
	case config.AuthModeJWT:
		if token := q.Get("token"); token != "" {
			return token, nil
		}
		return "", ErrMissingCredentials
	default:
		return "", fmt.Errorf("unsupported auth mode %q", mode)
	}
}

// CredentialFromAuthMessage extracts the credential carried by a wire-level
// auth message (apiKey or token field, per mode).
func CredentialFromAuthMessage(mode config.AuthMode, apiKey, token string) (string, error) {
	switch mode {
	case config.AuthModeAPIKey:
		if apiKey != "" {
			return apiKey, nil
		}
		return "", ErrMissingCredentials
	case config.AuthModeJWT:
		if token != "" {
			return token, nil
		}
		return "", ErrMissingCredentials
	default:
		return "", fmt.Errorf("unsupported auth mode %q", mode)
	}
}
