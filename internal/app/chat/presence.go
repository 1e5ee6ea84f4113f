package chat

import (
	"sync"
	"time"

	"minsky/internal/app/user"
	"minsky/internal/pkg/errs"
)

// Presence is the authoritative directory of online users.
// It is seeded with a permanent bot entry that has no connection and cannot be removed.
type Presence struct {
	// mu protects users and order.
	mu sync.RWMutex

	users map[string]*user.Record

	// order holds usernames oldest-connected first.
	order []string

	bot string
}

// NewPresence constructs a directory seeded with the given bot record.
func NewPresence(bot user.Record) *Presence {
	bot.Bot = true
	if bot.JoinedAt.IsZero() {
		bot.JoinedAt = time.Now()
	}

	return &Presence{
		users: map[string]*user.Record{bot.Username: &bot},
		order: []string{bot.Username},
		bot:   bot.Username,
	}
}

// Bot returns the bot's username.
func (p *Presence) Bot() string {
	return p.bot
}

// AddUser inserts a user record. Usernames are matched exactly and case-sensitively.
func (p *Presence) AddUser(username string, profile user.Profile) (user.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[username]; ok {
		return user.Record{}, errs.NewError(errs.ErrNameTaken, username)
	}

	rec := &user.Record{
		Username: username,
		Profile:  profile,
		JoinedAt: time.Now(),
	}
	p.users[username] = rec
	p.order = append(p.order, username)

	return rec.Clone(), nil
}

// RemoveUser drops a user record. Absent users and the bot are ignored.
func (p *Presence) RemoveUser(username string) {
	if username == p.bot {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[username]; !ok {
		return
	}

	delete(p.users, username)
	for i, name := range p.order {
		if name == username {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// ListOnline returns a point-in-time copy of every record, oldest first.
func (p *Presence) ListOnline() []user.Record {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]user.Record, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.users[name].Clone())
	}
	return out
}

// AppendMessage appends to the user's message log.
func (p *Presence) AppendMessage(username string, msg user.LoggedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.users[username]
	if !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}

	rec.Messages = append(rec.Messages, msg)
	return nil
}

// Get returns a copy of one record.
func (p *Presence) Get(username string) (user.Record, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rec, ok := p.users[username]
	if !ok {
		return user.Record{}, false
	}
	return rec.Clone(), true
}

// Has reports whether username is online.
func (p *Presence) Has(username string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.users[username]
	return ok
}

// Len returns the directory size, bot included.
func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}
