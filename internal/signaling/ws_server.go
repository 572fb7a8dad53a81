// Package signaling carries the browser-facing WebSocket protocol: it
// upgrades, authenticates and rate-limits connections, decodes the inbound
// JSON envelope and hands each event to the relay coordinator, and pumps the
// coordinator's outbound events back over the socket.
package signaling

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openmeet/signal-relay/internal/auth"
	"github.com/openmeet/signal-relay/internal/config"
	"github.com/openmeet/signal-relay/internal/metrics"
	"github.com/openmeet/signal-relay/internal/ratelimit"
	"github.com/openmeet/signal-relay/internal/relay"
)

const wsWriteWait = 1 * time.Second

// WebSocketServer terminates signaling sockets. Auth (when enabled) accepts a
// credential in the upgrade query string or in a first `auth` message sent
// within the auth timeout; everything after that is relayed to the
// coordinator. Protocol violations close the socket; domain-level misuse
// (unknown targets, rooms that vanished) is absorbed silently by the relay.
type WebSocketServer struct {
	cfg         config.Config
	verifier    auth.Verifier
	coordinator *relay.Coordinator
	metrics     *metrics.Metrics
	log         *slog.Logger
	upgrader    websocket.Upgrader
}

func NewWebSocketServer(cfg config.Config, coordinator *relay.Coordinator, m *metrics.Metrics, log *slog.Logger) (*WebSocketServer, error) {
	verifier, err := auth.NewVerifier(cfg)
	if err != nil {
		return nil, err
	}
	return &WebSocketServer{
		cfg:         cfg,
		verifier:    verifier,
		coordinator: coordinator,
		metrics:     m,
		log:         log,
		upgrader: websocket.Upgrader{
			// Origin is enforced by middleware before the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

func (s *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.cfg.MaxSignalingMessageBytes)

	if !s.authenticate(conn, r) {
		return
	}

	id := uuid.NewString()
	c := &client{
		conn: conn,
		send: make(chan relay.Event, s.cfg.SendQueueSize),
		done: make(chan struct{}),
	}
	defer c.close()
	go c.writePump(s.cfg.SignalingWSPingInterval, s.log.With("conn", id))

	s.coordinator.Connect(id, c)
	defer s.coordinator.Disconnect(id)

	limiter := ratelimit.NewTokenBucket(nil,
		int64(s.cfg.MaxSignalingMessagesPerSecond),
		int64(s.cfg.MaxSignalingMessagesPerSecond))

	resetIdle := func() { _ = conn.SetReadDeadline(time.Now().Add(s.cfg.SignalingWSIdleTimeout)) }
	resetIdle()
	conn.SetPongHandler(func(string) error {
		resetIdle()
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		resetIdle()

		if msgType != websocket.TextMessage {
			writeClose(conn, websocket.CloseUnsupportedData, "expected text message")
			return
		}

		if !limiter.Allow(1) {
			s.metrics.Inc(metrics.RateLimited)
			writeClose(conn, websocket.ClosePolicyViolation, "rate limit exceeded")
			return
		}

		msg, err := parseClientMessage(data)
		if err != nil {
			writeClose(conn, websocket.CloseUnsupportedData, "invalid message")
			return
		}

		switch msg.Type {
		case messageTypeJoinCall:
			s.coordinator.Join(id, msg.Room)
		case messageTypeSignal:
			s.coordinator.Signal(id, msg.To, msg.Payload)
		case messageTypeChatMessage:
			s.coordinator.Chat(id, msg.Data, msg.Sender)
		case messageTypeAuth:
			// Already authenticated; a repeated auth message is harmless.
		}
	}
}

// authenticate gates the socket before any relay state is touched. With no
// verifier configured it is a pass-through. Otherwise a query-string
// credential is checked first; failing that, the client gets one auth message
// within the auth timeout.
func (s *WebSocketServer) authenticate(conn *websocket.Conn, r *http.Request) bool {
	if s.verifier == nil {
		return true
	}

	if cred, err := auth.CredentialFromQuery(s.cfg.AuthMode, r.URL.Query()); err == nil {
		if err := s.verifier.Verify(cred); err != nil {
			s.metrics.Inc(metrics.AuthFailures)
			writeClose(conn, websocket.ClosePolicyViolation, "invalid credentials")
			return false
		}
		return true
	} else if !errors.Is(err, auth.ErrMissingCredentials) {
		writeClose(conn, websocket.CloseInternalServerErr, "invalid auth configuration")
		return false
	}

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.SignalingAuthTimeout))

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		if isTimeout(err) {
			writeClose(conn, websocket.ClosePolicyViolation, "authentication timeout")
		}
		return false
	}
	if msgType != websocket.TextMessage {
		writeClose(conn, websocket.CloseUnsupportedData, "expected text message")
		return false
	}

	msg, err := parseClientMessage(data)
	if err != nil || msg.Type != messageTypeAuth {
		writeClose(conn, websocket.ClosePolicyViolation, "authentication required")
		return false
	}

	cred, err := auth.CredentialFromAuthMessage(s.cfg.AuthMode, msg.APIKey, msg.Token)
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "missing credentials")
		return false
	}
	if err := s.verifier.Verify(cred); err != nil {
		s.metrics.Inc(metrics.AuthFailures)
		writeClose(conn, websocket.ClosePolicyViolation, "invalid credentials")
		return false
	}

	_ = conn.SetReadDeadline(time.Time{})
	return true
}

// client is the outbound half of one socket. Send enqueues without blocking;
// writePump is the only goroutine that writes to the connection.
type client struct {
	conn *websocket.Conn
	send chan relay.Event
	done chan struct{}

	closeOnce sync.Once
}

func (c *client) Send(ev relay.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *client) writePump(pingInterval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.send:
			payload, err := encodeEvent(ev)
			if err != nil {
				log.Error("failed to encode outbound event", "event", string(ev.Type), "err", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(wsWriteWait))
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
