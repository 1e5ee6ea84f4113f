package chat

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"minsky/internal/app/user"
	"minsky/internal/pkg/errs"
)

const testBot = "图灵机器人"

func newTestHub() *Hub {
	return NewHub(user.Record{
		Username: testBot,
		Profile: user.Profile{
			Signature: "图灵机器人聊天API",
			Avatar:    "http://7xnpxz.com1.z0.glb.clouddn.com/robot.png",
		},
	})
}

// fakeConn records delivered frames in memory.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool

	// capacity, when positive, fails deliveries once that many frames are queued.
	capacity int
}

func (f *fakeConn) Deliver(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errs.NewError(errs.ErrConnectionNotFound)
	}
	if f.capacity > 0 && len(f.frames) >= f.capacity {
		return errs.NewError(errs.ErrDeliveryFailed)
	}

	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type decodedEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (f *fakeConn) events(t *testing.T) []decodedEvent {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]decodedEvent, 0, len(f.frames))
	for _, frame := range f.frames {
		var ev decodedEvent
		require.NoError(t, json.Unmarshal(frame, &ev))
		out = append(out, ev)
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func (f *fakeConn) messages(t *testing.T) []Message {
	t.Helper()

	var out []Message
	for _, ev := range f.events(t) {
		if ev.Type != TypeMessage {
			continue
		}
		var m Message
		require.NoError(t, json.Unmarshal(ev.Payload, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) notices(t *testing.T) []NoticePayload {
	t.Helper()

	var out []NoticePayload
	for _, ev := range f.events(t) {
		if ev.Type != TypeSystemNotice {
			continue
		}
		var n NoticePayload
		require.NoError(t, json.Unmarshal(ev.Payload, &n))
		out = append(out, n)
	}
	return out
}

func (f *fakeConn) lastRoster(t *testing.T) RosterPayload {
	t.Helper()

	var roster RosterPayload
	found := false
	for _, ev := range f.events(t) {
		if ev.Type == TypeRoster {
			require.NoError(t, json.Unmarshal(ev.Payload, &roster))
			found = true
		}
	}
	require.True(t, found, "no roster event received")
	return roster
}

// connect opens a session over a fresh fake connection.
func connect(hub *Hub) (*Session, *fakeConn) {
	conn := &fakeConn{}
	return NewSession(hub, conn, nil), conn
}

// identified opens a session and identifies it as name.
func identified(t *testing.T, hub *Hub, name string) (*Session, *fakeConn) {
	t.Helper()

	s, conn := connect(hub)
	require.NoError(t, s.Identify(name, user.Profile{Signature: name + "'s signature"}))
	return s, conn
}

func usernames(records []user.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Username)
	}
	return out
}

func frame(t *testing.T, typ EventType, payload any) []byte {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	raw, err := json.Marshal(Envelope{Type: typ, Payload: body})
	require.NoError(t, err)
	return raw
}
