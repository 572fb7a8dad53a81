// Package turnrest issues coturn-compatible TURN REST credentials.
//
// See https://datatracker.ietf.org/doc/html/draft-uberti-behave-turn-rest.
// The algorithm is fixed by coturn:
//
//	username   = <unix_expiry>:<prefix>:<connection_id_or_random>
//	credential = base64(hmac_sha1(shared_secret, username))
package turnrest

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Generator struct {
	secret     []byte
	ttlSeconds int64
	prefix     string
	now        func() time.Time
}

type Config struct {
	SharedSecret   string
	TTLSeconds     int64
	UsernamePrefix string

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.SharedSecret == "" {
		return nil, errors.New("turnrest: shared secret is required")
	}
	if cfg.TTLSeconds <= 0 {
		return nil, errors.New("turnrest: TTLSeconds must be > 0")
	}
	if cfg.UsernamePrefix == "" {
		return nil, errors.New("turnrest: UsernamePrefix is required")
	}
	if strings.ContainsRune(cfg.UsernamePrefix, ':') {
		return nil, errors.New("turnrest: UsernamePrefix must not contain ':'")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		secret:     []byte(cfg.SharedSecret),
		ttlSeconds: cfg.TTLSeconds,
		prefix:     cfg.UsernamePrefix,
		now:        now,
	}, nil
}

type Credentials struct {
	Username   string
	Credential string
	ExpiryUnix int64
}

// Generate issues credentials bound to the given id (typically a connection
// id). The id must not contain ':' since it is embedded in the username.
func (g *Generator) Generate(id string) (Credentials, error) {
	if id == "" {
		return Credentials{}, errors.New("turnrest: id is required")
	}
	if strings.ContainsRune(id, ':') {
		return Credentials{}, errors.New("turnrest: id must not contain ':'")
	}

	expiry := g.now().UTC().Unix() + g.ttlSeconds
	username := fmt.Sprintf("%d:%s:%s", expiry, g.prefix, id)

	mac := hmac.New(sha1.New, g.secret)
	_, _ = mac.Write([]byte(username))

	return Credentials{
		Username:   username,
		Credential: base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		ExpiryUnix: expiry,
	}, nil
}

// GenerateRandom issues credentials with a random id, for callers that have
// no connection id yet (e.g. the ICE config endpoint).
func (g *Generator) GenerateRandom() (Credentials, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return Credentials{}, err
	}
	return g.Generate(hex.EncodeToString(b[:]))
}

// TTLSeconds returns the configured credential lifetime.
func (g *Generator) TTLSeconds() int64 { return g.ttlSeconds }
