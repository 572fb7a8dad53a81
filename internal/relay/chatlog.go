package relay

import "log/slog"

// ChatMessage is one entry in a room's history. From is the sender's
// connection id; Sender is the client-supplied display name, stored as-is.
type ChatMessage struct {
	Data   string
	Sender string
	From   string
}

// chatLogStore keeps the per-room append-only history. A room's log is
// allocated when the room is created and discarded with it; a message for a
// room that no longer exists is a benign race with disconnect and is dropped
// with a warning.
//
// Not self-locking: the Coordinator serializes all access.
type chatLogStore struct {
	logs       map[string][]ChatMessage
	maxPerRoom int
	log        *slog.Logger
}

func newChatLogStore(maxPerRoom int, log *slog.Logger) *chatLogStore {
	return &chatLogStore{
		logs:       make(map[string][]ChatMessage),
		maxPerRoom: maxPerRoom,
		log:        log,
	}
}

func (s *chatLogStore) createRoom(roomID string) {
	if _, ok := s.logs[roomID]; ok {
		return
	}
	s.logs[roomID] = []ChatMessage{}
}

func (s *chatLogStore) append(roomID string, msg ChatMessage) bool {
	entries, ok := s.logs[roomID]
	if !ok {
		s.log.Warn("chat message for unknown room dropped", "room", roomID, "from", msg.From)
		return false
	}
	if s.maxPerRoom > 0 && len(entries) >= s.maxPerRoom {
		entries = entries[1:]
	}
	s.logs[roomID] = append(entries, msg)
	return true
}

// historyOf returns the room's log in insertion order. The slice is a copy;
// callers may iterate it while the store keeps mutating.
func (s *chatLogStore) historyOf(roomID string) []ChatMessage {
	entries := s.logs[roomID]
	if len(entries) == 0 {
		return nil
	}
	out := make([]ChatMessage, len(entries))
	copy(out, entries)
	return out
}

func (s *chatLogStore) dropRoom(roomID string) {
	delete(s.logs, roomID)
}
