package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomKey_NormalizesLookups(t *testing.T) {
	require.Equal(t, "study", RoomKey("  Study "))
	require.Equal(t, "study", RoomKey("STUDY"))
}

func TestRoom_MembershipLifecycle(t *testing.T) {
	room := NewRoom(" Study ", "alice")

	// The creator is admitted immediately, the display name is trimmed
	require.Equal(t, "Study", room.Name)
	require.Equal(t, "study", room.Key())
	require.True(t, room.IsMember("alice"))
	require.False(t, room.Protected())

	room.AddMember("bob")
	room.AddMember("carol")
	require.Equal(t, []string{"alice", "bob", "carol"}, room.Members())

	room.RemoveMember("bob")
	require.False(t, room.IsMember("bob"))
	require.Equal(t, []string{"alice", "carol"}, room.Members())
}

func TestRoom_GlobalIsProtected(t *testing.T) {
	require.True(t, NewRoom("Global", "").Protected())
	require.True(t, NewRoom(GlobalRoom, "").Protected())
}

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleModerator, ParseRole("moderator"))
	require.Equal(t, RoleAdmin, ParseRole("admin"))
	// Unknown or empty roles degrade to plain membership
	require.Equal(t, RoleMember, ParseRole(""))
	require.Equal(t, RoleMember, ParseRole("superuser"))
}

func TestRole_CanModerate(t *testing.T) {
	require.False(t, RoleMember.CanModerate())
	require.True(t, RoleModerator.CanModerate())
	require.True(t, RoleAdmin.CanModerate())
}
