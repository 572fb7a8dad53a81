package relay

import (
	"log/slog"
	"reflect"
	"testing"
)

func newTestDirectory() *roomDirectory {
	return newRoomDirectory(newChatLogStore(0, slog.Default()))
}

func TestJoinReturnsSnapshotBeforeAppend(t *testing.T) {
	d := newTestDirectory()

	existing, created := d.join("room", "a")
	if !created {
		t.Fatal("first join should create the room")
	}
	if len(existing) != 0 {
		t.Fatalf("first joiner should see no existing peers, got %v", existing)
	}

	existing, created = d.join("room", "b")
	if created {
		t.Fatal("second join should not create the room")
	}
	if !reflect.DeepEqual(existing, []string{"a"}) {
		t.Fatalf("second joiner should see [a], got %v", existing)
	}

	existing, _ = d.join("room", "c")
	if !reflect.DeepEqual(existing, []string{"a", "b"}) {
		t.Fatalf("third joiner should see [a b] in join order, got %v", existing)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	d := newTestDirectory()
	d.join("room", "a")
	d.join("room", "b")

	existing, created := d.join("room", "a")
	if created {
		t.Fatal("rejoin should not create anything")
	}
	if !reflect.DeepEqual(existing, []string{"a", "b"}) {
		t.Fatalf("rejoin snapshot = %v, want [a b]", existing)
	}
	if got := d.membersOf("room"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("members after rejoin = %v, want [a b]", got)
	}
}

func TestFindRoomOf(t *testing.T) {
	d := newTestDirectory()
	d.join("x", "a")
	d.join("y", "b")

	if room, ok := d.findRoomOf("a"); !ok || room != "x" {
		t.Fatalf("findRoomOf(a) = %q, %v; want x, true", room, ok)
	}
	if room, ok := d.findRoomOf("b"); !ok || room != "y" {
		t.Fatalf("findRoomOf(b) = %q, %v; want y, true", room, ok)
	}
	if _, ok := d.findRoomOf("ghost"); ok {
		t.Fatal("findRoomOf should not locate an unknown connection")
	}
}

func TestLeavePreservesJoinOrder(t *testing.T) {
	d := newTestDirectory()
	d.join("room", "a")
	d.join("room", "b")
	d.join("room", "c")

	remaining, destroyed := d.leave("room", "b")
	if destroyed {
		t.Fatal("room should survive with members left")
	}
	if !reflect.DeepEqual(remaining, []string{"a", "c"}) {
		t.Fatalf("remaining = %v, want [a c]", remaining)
	}
	if got := d.membersOf("room"); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("members = %v, want [a c]", got)
	}
}

func TestLastLeaveDestroysRoomAndChatLog(t *testing.T) {
	logs := newChatLogStore(0, slog.Default())
	d := newRoomDirectory(logs)
	d.join("room", "a")
	logs.append("room", ChatMessage{Data: "hi", From: "a"})

	remaining, destroyed := d.leave("room", "a")
	if !destroyed {
		t.Fatal("last leave should destroy the room")
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining = %v, want empty", remaining)
	}
	if d.size() != 0 {
		t.Fatalf("directory size = %d, want 0", d.size())
	}
	if got := logs.historyOf("room"); got != nil {
		t.Fatalf("chat log should be gone with the room, got %v", got)
	}

	// A new room under the old id starts from scratch.
	existing, created := d.join("room", "b")
	if !created || len(existing) != 0 {
		t.Fatalf("recreated room: created=%v existing=%v", created, existing)
	}
}

func TestLeaveUnknownRoomOrMemberIsNoop(t *testing.T) {
	d := newTestDirectory()
	d.join("room", "a")

	if _, destroyed := d.leave("missing", "a"); destroyed {
		t.Fatal("leaving an unknown room should be a no-op")
	}
	remaining, destroyed := d.leave("room", "ghost")
	if destroyed {
		t.Fatal("leaving as a non-member should not destroy the room")
	}
	if !reflect.DeepEqual(remaining, []string{"a"}) {
		t.Fatalf("remaining = %v, want [a]", remaining)
	}
}
