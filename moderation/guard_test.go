package moderation

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/mocks"
)

func TestGuard_MuteCycle(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transportMock := mocks.NewMockTransport(ctrl)
	transportMock.EXPECT().Emit("conn-1", event.Muted{}).Times(1)

	guard := NewGuard(slog.Default(), transportMock)

	// When a connection is muted, only the target is told
	guard.Mute("conn-1")
	req.True(guard.IsMuted("conn-1"))
	req.False(guard.IsMuted("conn-2"))

	// Then clearing the mute makes it sendable again
	guard.ClearMute("conn-1")
	req.False(guard.IsMuted("conn-1"))
}

func TestGuard_KickNotifiesThenDisconnects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transportMock := mocks.NewMockTransport(ctrl)
	gomock.InOrder(
		transportMock.EXPECT().Emit("conn-1", event.Kicked{}),
		transportMock.EXPECT().Disconnect("conn-1"),
	)

	guard := NewGuard(slog.Default(), transportMock)
	guard.Kick("conn-1")
}

func TestGuard_AuthorizeMessageDelete(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	guard := NewGuard(slog.Default(), mocks.NewMockTransport(ctrl))
	msg := domain.Message{Sender: "alice"}

	// The sender may always delete their own message
	req.True(guard.AuthorizeMessageDelete("alice", domain.RoleMember, msg))
	// Moderators and admins may delete anyone's
	req.True(guard.AuthorizeMessageDelete("mod", domain.RoleModerator, msg))
	req.True(guard.AuthorizeMessageDelete("root", domain.RoleAdmin, msg))
	// Plain members may not touch other people's messages
	req.False(guard.AuthorizeMessageDelete("bob", domain.RoleMember, msg))
}

func TestGuard_AuthorizeRoomDelete(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	guard := NewGuard(slog.Default(), mocks.NewMockTransport(ctrl))

	owned := domain.NewRoom("study", "alice")
	req.True(guard.AuthorizeRoomDelete("alice", owned))
	// Ownership is required even for admins
	req.False(guard.AuthorizeRoomDelete("root", owned))

	global := domain.NewRoom(domain.GlobalRoom, "")
	req.False(guard.AuthorizeRoomDelete("alice", global))
	req.False(guard.AuthorizeRoomDelete("alice", nil))
}
