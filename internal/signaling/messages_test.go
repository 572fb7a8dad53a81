package signaling

import (
	"strings"
	"testing"

	"github.com/openmeet/signal-relay/internal/relay"
)

func TestParseClientMessageValid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want clientMessage
	}{
		{
			name: "join-call",
			raw:  `{"type":"join-call","room":"standup"}`,
			want: clientMessage{Type: messageTypeJoinCall, Room: "standup"},
		},
		{
			name: "signal",
			raw:  `{"type":"signal","to":"abc","payload":"{\"sdp\":\"v=0\"}"}`,
			want: clientMessage{Type: messageTypeSignal, To: "abc", Payload: `{"sdp":"v=0"}`},
		},
		{
			name: "chat-message",
			raw:  `{"type":"chat-message","data":"hi","sender":"alice"}`,
			want: clientMessage{Type: messageTypeChatMessage, Data: "hi", Sender: "alice"},
		},
		{
			name: "chat-message without sender",
			raw:  `{"type":"chat-message","data":"hi"}`,
			want: clientMessage{Type: messageTypeChatMessage, Data: "hi"},
		},
		{
			name: "auth with api key",
			raw:  `{"type":"auth","apiKey":"secret"}`,
			want: clientMessage{Type: messageTypeAuth, APIKey: "secret"},
		},
		{
			name: "auth with token",
			raw:  `{"type":"auth","token":"jwt"}`,
			want: clientMessage{Type: messageTypeAuth, Token: "jwt"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseClientMessage([]byte(tc.raw))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseClientMessageInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `nope`},
		{"unknown type", `{"type":"dance"}`},
		{"missing type", `{"room":"standup"}`},
		{"unknown field", `{"type":"join-call","room":"x","extra":1}`},
		{"trailing data", `{"type":"join-call","room":"x"}{"type":"join-call","room":"y"}`},
		{"join without room", `{"type":"join-call"}`},
		{"join with payload", `{"type":"join-call","room":"x","payload":"y"}`},
		{"signal without target", `{"type":"signal","payload":"x"}`},
		{"signal without payload", `{"type":"signal","to":"abc"}`},
		{"signal with room", `{"type":"signal","to":"abc","payload":"x","room":"r"}`},
		{"chat without data", `{"type":"chat-message","sender":"alice"}`},
		{"chat with target", `{"type":"chat-message","data":"hi","to":"abc"}`},
		{"auth without credentials", `{"type":"auth"}`},
		{"auth with room", `{"type":"auth","apiKey":"k","room":"r"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseClientMessage([]byte(tc.raw)); err == nil {
				t.Fatalf("expected parse error for %s", tc.raw)
			}
		})
	}
}

func TestEncodeEventEmptyPeersListStaysOnWire(t *testing.T) {
	data, err := encodeEvent(relay.Event{Type: relay.EventExistingPeers, Peers: []string{}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), `"peers":[]`) {
		t.Fatalf("empty snapshot must encode as an empty list, got %s", data)
	}

	data, err = encodeEvent(relay.Event{Type: relay.EventExistingPeers, Peers: nil})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), `"peers":[]`) {
		t.Fatalf("nil snapshot must still encode as an empty list, got %s", data)
	}
}

func TestEncodeEventOmitsUnrelatedFields(t *testing.T) {
	data, err := encodeEvent(relay.Event{Type: relay.EventNewPeer, Peer: "abc"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := string(data)
	if got != `{"type":"new-peer","peer":"abc"}` {
		t.Fatalf("new-peer encoding = %s", got)
	}

	data, err = encodeEvent(relay.Event{Type: relay.EventSignal, From: "a", Payload: "blob"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != `{"type":"signal","from":"a","payload":"blob"}` {
		t.Fatalf("signal encoding = %s", data)
	}
}
