package signaling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/openmeet/signal-relay/internal/relay"
)

type messageType string

const (
	messageTypeAuth        messageType = "auth"
	messageTypeJoinCall    messageType = "join-call"
	messageTypeSignal      messageType = "signal"
	messageTypeChatMessage messageType = "chat-message"
)

// clientMessage is the inbound envelope. Exactly the fields for the given
// Type may be set; anything else is rejected.
type clientMessage struct {
	Type messageType `json:"type"`

	APIKey string `json:"apiKey,omitempty"`
	Token  string `json:"token,omitempty"`

	Room string `json:"room,omitempty"`

	To      string `json:"to,omitempty"`
	Payload string `json:"payload,omitempty"`

	Data   string `json:"data,omitempty"`
	Sender string `json:"sender,omitempty"`
}

func parseClientMessage(data []byte) (clientMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var msg clientMessage
	if err := dec.Decode(&msg); err != nil {
		return clientMessage{}, err
	}
	if err := msg.validate(); err != nil {
		return clientMessage{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return clientMessage{}, fmt.Errorf("unexpected trailing data")
	}
	return msg, nil
}

func (m clientMessage) validate() error {
	switch m.Type {
	case messageTypeAuth:
		if m.APIKey == "" && m.Token == "" {
			return fmt.Errorf("auth message missing apiKey/token")
		}
		if m.Room != "" || m.To != "" || m.Payload != "" || m.Data != "" || m.Sender != "" {
			return fmt.Errorf("auth message has unexpected fields")
		}
	case messageTypeJoinCall:
		if m.Room == "" {
			return fmt.Errorf("join-call message missing room")
		}
		if m.APIKey != "" || m.Token != "" || m.To != "" || m.Payload != "" || m.Data != "" || m.Sender != "" {
			return fmt.Errorf("join-call message has unexpected fields")
		}
	case messageTypeSignal:
		if m.To == "" {
			return fmt.Errorf("signal message missing to")
		}
		if m.Payload == "" {
			return fmt.Errorf("signal message missing payload")
		}
		if m.APIKey != "" || m.Token != "" || m.Room != "" || m.Data != "" || m.Sender != "" {
			return fmt.Errorf("signal message has unexpected fields")
		}
	case messageTypeChatMessage:
		if m.Data == "" {
			return fmt.Errorf("chat-message message missing data")
		}
		if m.APIKey != "" || m.Token != "" || m.Room != "" || m.To != "" || m.Payload != "" {
			return fmt.Errorf("chat-message message has unexpected fields")
		}
	default:
		return fmt.Errorf("unsupported message type %q", m.Type)
	}
	return nil
}

// serverMessage is the outbound envelope. Peers is a pointer so an empty
// snapshot encodes as [] instead of disappearing under omitempty.
type serverMessage struct {
	Type string `json:"type"`

	ID string `json:"id,omitempty"`

	Peers *[]string `json:"peers,omitempty"`

	Peer string `json:"peer,omitempty"`

	From    string `json:"from,omitempty"`
	Payload string `json:"payload,omitempty"`

	Data   string `json:"data,omitempty"`
	Sender string `json:"sender,omitempty"`
}

func encodeEvent(ev relay.Event) ([]byte, error) {
	msg := serverMessage{
		Type:    string(ev.Type),
		ID:      ev.ID,
		Peer:    ev.Peer,
		From:    ev.From,
		Payload: ev.Payload,
		Data:    ev.Data,
		Sender:  ev.Sender,
	}
	if ev.Type == relay.EventExistingPeers {
		peers := ev.Peers
		if peers == nil {
			peers = []string{}
		}
		msg.Peers = &peers
	}
	return json.Marshal(msg)
}
