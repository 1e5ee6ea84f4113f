package chat

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minsky/internal/app/user"
	"minsky/internal/pkg/errs"
	"minsky/internal/pkg/metrics"
)

func TestHubIdentifyUnknownConnection(t *testing.T) {
	hub := newTestHub()

	_, err := hub.Identify(ConnID("nope"), "alice", user.Profile{})

	assert.True(t, errs.HasCode(err, errs.ErrConnectionNotFound))
	assert.False(t, hub.Presence().Has("alice"))
}

func TestHubDisconnectIsIdempotent(t *testing.T) {
	hub := newTestHub()
	s, _ := identified(t, hub, "alice")
	require.NoError(t, s.JoinGroup("room"))

	name, groups, ok := hub.Disconnect(s.ID())
	require.True(t, ok)
	assert.Equal(t, "alice", name)
	assert.Equal(t, []string{"room"}, groups)

	_, _, ok = hub.Disconnect(s.ID())
	assert.False(t, ok)
}

func TestHubSwitchGroupAfterDisconnectFails(t *testing.T) {
	hub := newTestHub()
	s, _ := identified(t, hub, "alice")
	hub.Disconnect(s.ID())

	err := hub.SwitchGroup(s.ID(), "alice", "", "room")

	assert.True(t, errs.HasCode(err, errs.ErrConnectionNotFound))
	assert.Empty(t, hub.Groups().MembersOf("room"), "no ghost membership after disconnect")
}

func TestHubPostRequiresOnlineSender(t *testing.T) {
	hub := newTestHub()

	_, err := hub.Post(NewMessage("ghost", "boo", ""))

	assert.True(t, errs.HasCode(err, errs.ErrUserNotFound))
}

func TestHubShutdownClosesConnections(t *testing.T) {
	hub := newTestHub()
	_, a := identified(t, hub, "a")
	_, b := connect(hub)

	hub.Shutdown()

	assert.True(t, hub.ShuttingDown())
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
}

func TestHubShutdownSuppressesLeftNotices(t *testing.T) {
	hub := newTestHub()
	alice, _ := identified(t, hub, "alice")
	_, bob := identified(t, hub, "bob")

	hub.Shutdown()
	bob.mu.Lock()
	bob.closed = false
	bob.frames = nil
	bob.mu.Unlock()

	alice.Close()

	assert.Empty(t, bob.notices(t))
	assert.False(t, hub.Presence().Has("alice"))
}

func TestHubUnbindSignsOutButKeepsConnection(t *testing.T) {
	hub := newTestHub()
	s, _ := identified(t, hub, "alice")
	require.NoError(t, s.JoinGroup("room"))

	name, ok := hub.Unbind(s.ID())
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	assert.False(t, hub.Presence().Has("alice"))
	assert.Empty(t, hub.Groups().GroupsOf("alice"))
	assert.Equal(t, 1, hub.Registry().Len())
	assert.Equal(t, 0, hub.Registry().BoundLen())

	_, ok = hub.Unbind(s.ID())
	assert.False(t, ok)
}

func TestHubGaugesTrackCurrentSizes(t *testing.T) {
	hub := newTestHub()

	a, _ := identified(t, hub, "alice")
	_, _ = connect(hub)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.LiveConnections))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.OnlineUsers))

	hub.Disconnect(a.ID())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LiveConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OnlineUsers), "only the bot remains")
}

func TestHubDrainTimesOut(t *testing.T) {
	hub := newTestHub()
	connect(hub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, hub.Drain(ctx), context.DeadlineExceeded)
	assert.Equal(t, 1, hub.Registry().Len())
}
