package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupsJoinIsIdempotent(t *testing.T) {
	g := NewGroups()

	g.Join("room", "dave1")
	g.Join("room", "dave1")
	g.Join("room", "dave2")

	assert.Equal(t, []string{"dave1", "dave2"}, g.MembersOf("room"))
	assert.True(t, g.IsMember("room", "dave1"))
}

func TestGroupsLeaveIsIdempotent(t *testing.T) {
	g := NewGroups()
	g.Join("room", "dave1")

	g.Leave("room", "dave1")
	g.Leave("room", "dave1")
	g.Leave("nowhere", "nobody")

	assert.Empty(t, g.MembersOf("room"))
	assert.Empty(t, g.GroupsOf("dave1"))
}

func TestGroupsMembersOfUnknownGroup(t *testing.T) {
	g := NewGroups()

	members := g.MembersOf("never")
	assert.NotNil(t, members)
	assert.Empty(t, members)
}

func TestGroupsLeaveAll(t *testing.T) {
	g := NewGroups()
	g.Join("b", "eve")
	g.Join("a", "eve")
	g.Join("a", "frank")

	assert.Equal(t, []string{"a", "b"}, g.GroupsOf("eve"))

	left := g.LeaveAll("eve")

	assert.Equal(t, []string{"a", "b"}, left)
	assert.Empty(t, g.GroupsOf("eve"))
	assert.Equal(t, []string{"frank"}, g.MembersOf("a"))
	assert.Empty(t, g.MembersOf("b"))
	assert.Empty(t, g.LeaveAll("eve"))
}

func TestGroupsListingKeepsEmptyGroups(t *testing.T) {
	g := NewGroups()
	g.Join("zeta", "x")
	g.Join("alpha", "y")
	g.Leave("zeta", "x")

	assert.Equal(t, []GroupInfo{{Name: "alpha", Members: 1}, {Name: "zeta", Members: 0}}, g.Groups())
}
