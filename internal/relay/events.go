package relay

// EventType names an outbound relay event. Values match the wire vocabulary
// the browser client listens on.
type EventType string

const (
	EventWelcome       EventType = "welcome"
	EventExistingPeers EventType = "existing-peers"
	EventNewPeer       EventType = "new-peer"
	EventSignal        EventType = "signal"
	EventChatMessage   EventType = "chat-message"
	EventUserLeft      EventType = "user-left"
)

// Event is one outbound event to a single connection. Only the fields for the
// given Type are set.
type Event struct {
	Type EventType

	// ID is the receiver's own connection id (welcome).
	ID string

	// Peers is the existing-peers snapshot (existing-peers). Never nil on the
	// wire: an empty room yields an empty list.
	Peers []string

	// Peer identifies the joining or departing connection (new-peer,
	// user-left).
	Peer string

	// From is the originating connection id (signal, chat-message).
	From string

	// Payload is the opaque handshake blob (signal). The relay never
	// interprets it.
	Payload string

	// Data and Sender carry the chat body and display name (chat-message).
	Data   string
	Sender string
}

// Peer is the outbound half of one transport connection. Send must not block:
// it enqueues fire-and-forget and reports false when the event was dropped
// (slow or closed client).
type Peer interface {
	Send(ev Event) bool
}
