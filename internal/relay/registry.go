package relay

import "time"

// connectionRegistry records when each live connection was accepted. The
// timestamps exist only so the disconnect path can log a session duration;
// nothing else reads them.
//
// Not self-locking: the Coordinator serializes all access.
type connectionRegistry struct {
	connectedAt map[string]time.Time
	now         func() time.Time
}

func newConnectionRegistry(now func() time.Time) *connectionRegistry {
	return &connectionRegistry{
		connectedAt: make(map[string]time.Time),
		now:         now,
	}
}

func (r *connectionRegistry) register(id string) {
	r.connectedAt[id] = r.now()
}

// unregister is idempotent; unknown ids report ok=false and a zero duration.
func (r *connectionRegistry) unregister(id string) (dur time.Duration, ok bool) {
	start, ok := r.connectedAt[id]
	if !ok {
		return 0, false
	}
	delete(r.connectedAt, id)
	return r.now().Sub(start), true
}

func (r *connectionRegistry) size() int {
	return len(r.connectedAt)
}
