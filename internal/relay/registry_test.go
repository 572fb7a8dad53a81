package relay

import (
	"testing"
	"time"
)

func TestRegistrySessionDuration(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := newConnectionRegistry(func() time.Time { return now })

	r.register("a")
	now = now.Add(42 * time.Second)

	dur, ok := r.unregister("a")
	if !ok {
		t.Fatal("unregister of a live connection should succeed")
	}
	if dur != 42*time.Second {
		t.Fatalf("session duration = %v, want 42s", dur)
	}
	if r.size() != 0 {
		t.Fatalf("size = %d, want 0", r.size())
	}
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := newConnectionRegistry(time.Now)
	r.register("a")

	if _, ok := r.unregister("a"); !ok {
		t.Fatal("first unregister should succeed")
	}
	if dur, ok := r.unregister("a"); ok || dur != 0 {
		t.Fatalf("second unregister = %v, %v; want 0, false", dur, ok)
	}
	if _, ok := r.unregister("never-registered"); ok {
		t.Fatal("unregister of an unknown id should report false")
	}
}
