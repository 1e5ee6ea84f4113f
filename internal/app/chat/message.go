/*
Package chat contains the presence and real-time messaging core: the connection
registry, the presence directory, group membership, the broadcast engine and the
per-connection session protocol, plus the WebSocket client that carries it.

This file defines the wire events exchanged with chat clients.
*/
package chat

import (
	"encoding/json"
	"time"

	"minsky/internal/app/user"
	"minsky/internal/pkg/randx"
)

// EventType is the type tag of an inbound or outbound event.
type EventType string

// Inbound event types.
const (
	TypeIdentify   EventType = "identify"
	TypeJoinGroup  EventType = "joinGroup"
	TypeLeaveGroup EventType = "leaveGroup"
	TypeMessage    EventType = "message"
	TypeRoster     EventType = "roster"
)

// Outbound event types. TypeMessage and TypeRoster are used in both directions.
const (
	TypeSystemNotice EventType = "systemNotice"
)

const (
	// MaxContentBytes is the maximum allowed size (in bytes) of a message body.
	MaxContentBytes = 5000
)

// Envelope is the framing shared by every event.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outboundEnvelope is the framing the server writes.
type outboundEnvelope struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp int64     `json:"timestamp"`
}

// IdentifyPayload is the body of an identify event.
type IdentifyPayload struct {
	Username  string `json:"username"`
	Signature string `json:"signature"`
	Avatar    string `json:"avatar"`
}

// JoinGroupPayload is the body of a joinGroup event.
type JoinGroupPayload struct {
	Name string `json:"name"`
}

// MessagePayload is the body of an inbound message event.
// An empty Target addresses the global room.
type MessagePayload struct {
	Text   string `json:"text"`
	Target string `json:"target,omitempty"`
}

// Message is one chat message as it is fanned out to recipients.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Text      string `json:"text"`
	Target    string `json:"target"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage builds a Message stamped with a fresh ID and the current time.
func NewMessage(from, text, target string) Message {
	return Message{
		ID:        randx.MessageID(),
		From:      from,
		Text:      text,
		Target:    target,
		Timestamp: time.Now().UnixMilli(),
	}
}

// IsGlobal reports whether the message addresses the global room.
func (m Message) IsGlobal() bool {
	return m.Target == ""
}

// LogEntry converts the message into a presence log entry.
func (m Message) LogEntry() user.LoggedMessage {
	return user.LoggedMessage{
		ID:        m.ID,
		Text:      m.Text,
		Target:    m.Target,
		Timestamp: m.Timestamp,
	}
}

// RosterPayload carries the ordered list of online users.
type RosterPayload struct {
	Users []user.Public `json:"users"`
}

// NoticePayload carries a system notice. Code is set when the notice reports an error.
type NoticePayload struct {
	Text string `json:"text"`
	Code int    `json:"code,omitempty"`
}

// encodeEvent marshals an outbound event frame.
func encodeEvent(t EventType, payload any) ([]byte, error) {
	return json.Marshal(outboundEnvelope{
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
}

// rosterOf projects presence records onto roster entries.
func rosterOf(records []user.Record) RosterPayload {
	users := make([]user.Public, 0, len(records))
	for _, r := range records {
		users = append(users, r.Public())
	}
	return RosterPayload{Users: users}
}
