/*
Package chat contains the presence and real-time messaging core.

This file defines the Hub, which owns the connection registry, presence directory,
group manager and broadcast engine for the whole process. The Hub lock makes every
cross-structure change (identify, group focus change, disconnect) atomic with
respect to the broadcast engine's recipient resolution.
*/
package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"minsky/internal/app/user"
	"minsky/internal/pkg/errs"
	"minsky/internal/pkg/logx"
	"minsky/internal/pkg/metrics"
)

// Hub is the process-wide chat state, constructed once and shared by every session.
type Hub struct {
	// mu serializes cross-structure mutations; the broadcaster holds it for reading.
	mu sync.RWMutex

	registry    *Registry
	presence    *Presence
	groups      *Groups
	broadcaster *Broadcaster

	shuttingDown atomic.Bool

	logger zerolog.Logger
}

// NewHub constructs a Hub whose presence directory is seeded with bot.
func NewHub(bot user.Record) *Hub {
	h := &Hub{
		presence: NewPresence(bot),
		groups:   NewGroups(),
		logger:   logx.Component("Hub"),
	}

	h.registry = NewRegistry(h.presence.RemoveUser)
	h.broadcaster = NewBroadcaster(h.mu.RLocker(), h.presence, h.registry, h.groups)

	metrics.OnlineUsers.Set(float64(h.presence.Len()))
	metrics.LiveConnections.Set(0)

	h.logger.Info().Str("bot", h.presence.Bot()).Msg("Hub initialized with bot presence.")
	return h
}

// Presence returns the presence directory.
func (h *Hub) Presence() *Presence { return h.presence }

// Registry returns the connection registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Groups returns the group manager.
func (h *Hub) Groups() *Groups { return h.groups }

// Broadcaster returns the broadcast engine.
func (h *Hub) Broadcaster() *Broadcaster { return h.broadcaster }

// ShuttingDown reports whether Shutdown has been called.
func (h *Hub) ShuttingDown() bool { return h.shuttingDown.Load() }

// Connect registers a newly accepted connection.
func (h *Hub) Connect(conn Conn) ConnID {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.registry.Register(conn)
	h.setGaugesLocked()
	return id
}

// Identify adds username to presence and binds it to the connection as one step.
func (h *Hub) Identify(id ConnID, username string, profile user.Profile) (user.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.registry.Conn(id); !ok {
		return user.Record{}, errs.NewError(errs.ErrConnectionNotFound)
	}

	if _, bound := h.registry.Username(id); bound {
		return user.Record{}, errs.NewError(errs.ErrAlreadyBound)
	}

	rec, err := h.presence.AddUser(username, profile)
	if err != nil {
		return user.Record{}, err
	}

	if err := h.registry.Bind(id, username); err != nil {
		h.presence.RemoveUser(username)
		h.logger.Error().Err(err).Str("username", username).Msg("Bind failed after presence add, rolled back.")
		return user.Record{}, err
	}

	h.setGaugesLocked()
	h.logger.Info().
		Str("conn_id", string(id)).
		Str("username", username).
		Int("online", h.presence.Len()).
		Msg("User identified.")

	return rec, nil
}

// SwitchGroup moves username's group focus from one group to another.
// An empty from joins without leaving; an empty to only leaves.
func (h *Hub) SwitchGroup(id ConnID, username, from, to string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if bound, ok := h.registry.Username(id); !ok || bound != username {
		return errs.NewError(errs.ErrConnectionNotFound)
	}

	if from != "" {
		h.groups.Leave(from, username)
	}
	if to != "" {
		h.groups.Join(to, username)
	}

	h.logger.Debug().Str("username", username).Str("from", from).Str("to", to).Msg("Group focus changed.")
	return nil
}

// Post appends msg to its sender's log and fans it out to the message's scope.
func (h *Hub) Post(msg Message) (Report, error) {
	if err := h.presence.AppendMessage(msg.From, msg.LogEntry()); err != nil {
		return Report{}, err
	}

	if msg.IsGlobal() {
		metrics.MessagesTotal.WithLabelValues(metrics.ScopeGlobal).Inc()
		return h.broadcaster.SendGlobal(msg), nil
	}

	metrics.MessagesTotal.WithLabelValues(metrics.ScopeGroup).Inc()
	return h.broadcaster.SendToGroup(msg.Target, msg), nil
}

// Disconnect closes the connection, evicts its user from presence and drops
// every group membership as one step. It returns the username that was bound,
// or ok=false when the connection was already gone.
func (h *Hub) Disconnect(id ConnID) (username string, groups []string, ok bool) {
	h.mu.Lock()

	username, err := h.registry.Close(id)
	if err != nil {
		h.mu.Unlock()
		return "", nil, false
	}

	if username != "" {
		groups = h.groups.LeaveAll(username)
	}

	online := h.presence.Len()
	h.setGaugesLocked()
	h.mu.Unlock()

	h.logger.Info().
		Str("conn_id", string(id)).
		Str("username", username).
		Strs("groups", groups).
		Int("online", online).
		Msg("Connection disconnected.")

	return username, groups, true
}

// Unbind signs the user bound to id out of presence and every group while
// keeping the connection registered. It returns the username that was bound.
func (h *Hub) Unbind(id ConnID) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	username := h.registry.Unbind(id)
	if username == "" {
		return "", false
	}

	h.groups.LeaveAll(username)
	h.setGaugesLocked()

	h.logger.Info().Str("conn_id", string(id)).Str("username", username).Msg("User signed out.")
	return username, true
}

// setGaugesLocked publishes the current sizes. Callers hold h.mu.
func (h *Hub) setGaugesLocked() {
	metrics.OnlineUsers.Set(float64(h.presence.Len()))
	metrics.LiveConnections.Set(float64(h.registry.Len()))
}

// Shutdown closes every live connection. Sessions run their own disconnect
// cleanup as their transports terminate.
func (h *Hub) Shutdown() {
	h.shuttingDown.Store(true)

	conns := h.registry.Conns()
	h.logger.Info().Int("connections", len(conns)).Msg("Shutting down hub, closing connections.")

	for _, conn := range conns {
		conn.Close()
	}
}

// Drain waits until every connection has run its disconnect cleanup or ctx is done.
func (h *Hub) Drain(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for h.registry.Len() > 0 {
		select {
		case <-ctx.Done():
			h.logger.Warn().Int("connections", h.registry.Len()).Msg("Hub drain timed out.")
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
