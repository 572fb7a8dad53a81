// Package relay implements the signaling core: who is in which room, in what
// order peers are introduced, how chat history is replayed to late joiners,
// and how opaque handshake payloads are forwarded between connections.
package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/openmeet/signal-relay/internal/metrics"
)

// Coordinator is the single owner of all relay state. Every inbound transport
// event lands here; handlers read and update the room directory, connection
// registry and chat log under one mutex, so all mutations for a room are
// observed in event-arrival order. Outbound sends are non-blocking enqueues
// and never hold the handler up.
//
// Every handler is defensive: operating on an unknown or already-removed id
// is a no-op, never a crash, and no error is surfaced to any client.
type Coordinator struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	peers    map[string]Peer
	registry *connectionRegistry
	rooms    *roomDirectory
	chat     *chatLogStore
}

type Config struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// MaxChatHistoryPerRoom bounds a room's retained history; 0 keeps all of
	// it for the room's lifetime.
	MaxChatHistoryPerRoom int

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewCoordinator(cfg Config) *Coordinator {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	chat := newChatLogStore(cfg.MaxChatHistoryPerRoom, log)
	return &Coordinator{
		log:      log,
		metrics:  cfg.Metrics,
		peers:    make(map[string]Peer),
		registry: newConnectionRegistry(now),
		rooms:    newRoomDirectory(chat),
		chat:     chat,
	}
}

// Connect registers a new connection and tells it its server-assigned id.
func (c *Coordinator) Connect(id string, peer Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.peers[id] = peer
	c.registry.register(id)
	c.deliver(id, Event{Type: EventWelcome, ID: id})

	c.metrics.Inc(metrics.Connects)
	c.log.Info("connection accepted", "conn", id)
}

// Join puts the connection into a room. The joiner receives the
// existing-peers snapshot first, then each prior member is told about the
// joiner, then the room's chat history is replayed to the joiner in original
// order. That sequencing guarantees the joiner never receives a signal from a
// peer it has not been told about.
func (c *Coordinator) Join(id, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.peers[id]; !ok {
		c.log.Warn("join from unknown connection ignored", "conn", id, "room", roomID)
		return
	}
	if current, ok := c.rooms.findRoomOf(id); ok {
		if current == roomID {
			c.log.Debug("duplicate join ignored", "conn", id, "room", roomID)
		} else {
			c.log.Warn("join ignored: connection already in another room",
				"conn", id, "room", roomID, "current_room", current)
		}
		return
	}

	existing, created := c.rooms.join(roomID, id)
	if created {
		c.metrics.Inc(metrics.RoomsCreated)
		c.log.Info("room created", "room", roomID)
	}

	// An explicit empty snapshot, not an omitted one: the first joiner is told
	// it is alone.
	if created {
		c.deliver(id, Event{Type: EventExistingPeers, Peers: []string{}})
	} else {
		c.deliver(id, Event{Type: EventExistingPeers, Peers: existing})
	}

	for _, other := range existing {
		c.deliver(other, Event{Type: EventNewPeer, Peer: id})
	}

	for _, msg := range c.chat.historyOf(roomID) {
		c.deliver(id, Event{Type: EventChatMessage, Data: msg.Data, Sender: msg.Sender, From: msg.From})
		c.metrics.Inc(metrics.ChatReplayed)
	}

	c.metrics.Inc(metrics.Joins)
	c.log.Info("joined room", "conn", id, "room", roomID, "peers", len(existing))
}

// Signal forwards an opaque payload to the target connection, tagged with the
// sender's id. Contents are never inspected. A dead target means the send is
// dropped silently; the sender is never told.
func (c *Coordinator) Signal(id, targetID, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.peers[targetID]; !ok {
		c.metrics.Inc(metrics.SignalsDroppedUnknownTarget)
		c.log.Debug("signal to unknown target dropped", "conn", id, "target", targetID)
		return
	}

	c.deliver(targetID, Event{Type: EventSignal, From: id, Payload: payload})
	c.metrics.Inc(metrics.SignalsForwarded)
}

// Chat appends the message to the sender's room history and fans it out to
// every current member, the sender included (clients recognize their own
// messages by connection id). A sender with no room is a race with leave and
// is dropped silently.
func (c *Coordinator) Chat(id, data, sender string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	roomID, ok := c.rooms.findRoomOf(id)
	if !ok {
		c.metrics.Inc(metrics.ChatDroppedNoRoom)
		c.log.Debug("chat from connection with no room dropped", "conn", id)
		return
	}

	msg := ChatMessage{Data: data, Sender: sender, From: id}
	if !c.chat.append(roomID, msg) {
		return
	}

	for _, member := range c.rooms.membersOf(roomID) {
		c.deliver(member, Event{Type: EventChatMessage, Data: msg.Data, Sender: msg.Sender, From: msg.From})
	}
	c.metrics.Inc(metrics.ChatMessages)
}

// Disconnect tears the connection down: remaining room members get exactly
// one user-left each, the room (and its chat log) is destroyed if this was
// the last member, and the registry entry is removed. Terminal and
// idempotent.
func (c *Coordinator) Disconnect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if roomID, ok := c.rooms.findRoomOf(id); ok {
		remaining, destroyed := c.rooms.leave(roomID, id)
		for _, other := range remaining {
			c.deliver(other, Event{Type: EventUserLeft, Peer: id})
		}
		if destroyed {
			c.metrics.Inc(metrics.RoomsDestroyed)
			c.log.Info("room destroyed", "room", roomID)
		}
	}

	delete(c.peers, id)
	if dur, ok := c.registry.unregister(id); ok {
		c.metrics.Inc(metrics.Disconnects)
		c.log.Info("connection closed", "conn", id, "session_duration", dur.Round(time.Millisecond))
	}
}

// Stats is a point-in-time snapshot for diagnostics.
type Stats struct {
	Connections int
	Rooms       int
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Connections: c.registry.size(),
		Rooms:       c.rooms.size(),
	}
}

// deliver enqueues an event to a live connection. Callers hold c.mu; Send is
// non-blocking by contract, so nothing here can stall the coordinator.
func (c *Coordinator) deliver(id string, ev Event) {
	peer, ok := c.peers[id]
	if !ok {
		return
	}
	if !peer.Send(ev) {
		c.metrics.Inc(metrics.SendsDropped)
		c.log.Warn("outbound event dropped", "conn", id, "event", string(ev.Type))
	}
}
