package chat

import (
	"cmp"
	"slices"
	"sync"
)

type set map[string]struct{}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// GroupInfo summarizes one group for listings.
type GroupInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// Groups tracks named group membership. Groups are created on first join and
// kept when they become empty. Name validation is left to the caller.
type Groups struct {
	// mu protects members and byUser.
	mu sync.RWMutex

	// members maps group name to member usernames.
	members map[string]set

	// byUser maps username to the groups it belongs to.
	byUser map[string]set
}

// NewGroups constructs an empty group manager.
func NewGroups() *Groups {
	return &Groups{
		members: make(map[string]set),
		byUser:  make(map[string]set),
	}
}

// Join adds username to group. It is idempotent.
func (g *Groups) Join(group, username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.members[group] == nil {
		g.members[group] = make(set)
	}
	g.members[group][username] = struct{}{}

	if g.byUser[username] == nil {
		g.byUser[username] = make(set)
	}
	g.byUser[username][group] = struct{}{}
}

// Leave removes username from group. It is idempotent.
func (g *Groups) Leave(group, username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.leaveLocked(group, username)
}

func (g *Groups) leaveLocked(group, username string) {
	if members, ok := g.members[group]; ok {
		delete(members, username)
	}

	if groups, ok := g.byUser[username]; ok {
		delete(groups, group)
		if len(groups) == 0 {
			delete(g.byUser, username)
		}
	}
}

// MembersOf returns the sorted members of group, empty if it was never created.
func (g *Groups) MembersOf(group string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	members, ok := g.members[group]
	if !ok {
		return []string{}
	}
	return members.sorted()
}

// IsMember reports whether username belongs to group.
func (g *Groups) IsMember(group, username string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.members[group][username]
	return ok
}

// GroupsOf returns the sorted groups username belongs to.
func (g *Groups) GroupsOf(username string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	groups, ok := g.byUser[username]
	if !ok {
		return []string{}
	}
	return groups.sorted()
}

// LeaveAll drops every membership of username and returns the groups it left.
func (g *Groups) LeaveAll(username string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	groups, ok := g.byUser[username]
	if !ok {
		return []string{}
	}

	left := groups.sorted()
	for _, group := range left {
		g.leaveLocked(group, username)
	}
	return left
}

// Groups lists every known group with its member count, sorted by name.
func (g *Groups) Groups() []GroupInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]GroupInfo, 0, len(g.members))
	for name, members := range g.members {
		out = append(out, GroupInfo{Name: name, Members: len(members)})
	}
	slices.SortFunc(out, func(a, b GroupInfo) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
