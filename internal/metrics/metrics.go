package metrics

import "sync"

// Counter names used across the relay. Names are intentionally simple; they
// are exported to Prometheus as values of the `event` label on a single
// counter family.
const (
	Connects    = "connects"
	Disconnects = "disconnects"

	Joins          = "joins"
	RoomsCreated   = "rooms_created"
	RoomsDestroyed = "rooms_destroyed"

	SignalsForwarded            = "signals_forwarded"
	SignalsDroppedUnknownTarget = "signals_dropped_unknown_target"

	ChatMessages      = "chat_messages"
	ChatReplayed      = "chat_replayed"
	ChatDroppedNoRoom = "chat_dropped_no_room"

	SendsDropped = "sends_dropped"

	AuthFailures = "auth_failures"
	RateLimited  = "rate_limited"
)

// Metrics is a minimal, concurrency-safe counter registry.
//
// The relay deliberately keeps an in-process registry rather than pulling in a
// metrics SDK; the counters are scraped through the Prometheus text handler.
// A nil *Metrics is valid and counts nothing.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
