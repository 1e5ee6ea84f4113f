package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"minsky/internal/pkg/errs"
	"minsky/internal/pkg/logx"
	"minsky/internal/pkg/randx"
)

// ConnID identifies one live connection.
type ConnID string

// Conn is the transport handle of one live session.
type Conn interface {
	// Deliver queues an encoded frame without blocking.
	Deliver(frame []byte) error

	// Close terminates the transport. It must be idempotent.
	Close()
}

type connEntry struct {
	conn     Conn
	username string
}

// Registry maps live connections to the username they are bound to.
type Registry struct {
	// mu protects conns and names.
	mu sync.RWMutex

	conns map[ConnID]*connEntry

	// names is the reverse index of bound usernames.
	names map[string]ConnID

	// evict is called with the bound username after a connection is closed.
	evict func(username string)

	logger zerolog.Logger
}

// NewRegistry constructs a Registry. evict may be nil.
func NewRegistry(evict func(username string)) *Registry {
	return &Registry{
		conns:  make(map[ConnID]*connEntry),
		names:  make(map[string]ConnID),
		evict:  evict,
		logger: logx.Component("Registry"),
	}
}

// Register assigns a fresh identifier to a newly accepted connection.
func (r *Registry) Register(conn Conn) ConnID {
	id := ConnID(randx.ConnectionID())

	r.mu.Lock()
	r.conns[id] = &connEntry{conn: conn}
	r.mu.Unlock()

	r.logger.Debug().Str("conn_id", string(id)).Msg("Connection registered.")
	return id
}

// Bind associates a connection with a username.
func (r *Registry) Bind(id ConnID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[id]
	if !ok {
		return errs.NewError(errs.ErrConnectionNotFound)
	}

	if entry.username != "" {
		return errs.NewError(errs.ErrAlreadyBound)
	}

	if _, taken := r.names[username]; taken {
		return errs.NewError(errs.ErrNameTaken, username)
	}

	entry.username = username
	r.names[username] = id
	return nil
}

// Unbind removes the username association of a connection and evicts the
// username, leaving the connection registered. It is idempotent and returns
// the username that was bound, empty when there was none.
func (r *Registry) Unbind(id ConnID) string {
	r.mu.Lock()
	entry, ok := r.conns[id]
	if !ok || entry.username == "" {
		r.mu.Unlock()
		return ""
	}

	username := entry.username
	delete(r.names, username)
	entry.username = ""
	r.mu.Unlock()

	if r.evict != nil {
		r.evict(username)
	}

	r.logger.Debug().Str("conn_id", string(id)).Str("username", username).Msg("Connection unbound.")
	return username
}

// Lookup returns the connection bound to username.
func (r *Registry) Lookup(username string) (ConnID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[username]
	if !ok {
		return "", errs.NewError(errs.ErrUserNotFound)
	}
	return id, nil
}

// Conn resolves a connection identifier to its live handle.
func (r *Registry) Conn(id ConnID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return entry.conn, true
}

// Username returns the username bound to id, if any.
func (r *Registry) Username(id ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.conns[id]
	if !ok || entry.username == "" {
		return "", false
	}
	return entry.username, true
}

// Close releases a connection and its binding, then evicts the bound username.
// Closing an unknown or already closed connection returns ErrConnectionNotFound
// and evicts nothing.
func (r *Registry) Close(id ConnID) (string, error) {
	r.mu.Lock()
	entry, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return "", errs.NewError(errs.ErrConnectionNotFound)
	}

	delete(r.conns, id)
	username := entry.username
	if username != "" {
		delete(r.names, username)
	}
	r.mu.Unlock()

	if username != "" && r.evict != nil {
		r.evict(username)
	}

	r.logger.Debug().Str("conn_id", string(id)).Str("username", username).Msg("Connection closed.")
	return username, nil
}

// Conns returns the handles of every live connection.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for _, entry := range r.conns {
		out = append(out, entry.conn)
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// BoundLen returns the number of connections bound to a username.
func (r *Registry) BoundLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
