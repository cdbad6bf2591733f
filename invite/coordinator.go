// Package invite holds the short-lived handshake state for room
// invitations and ad-hoc private chats. Nothing here is durable: an
// unanswered invite simply dies with either connection.
package invite

import (
	"fmt"
	"log/slog"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/presence"
	"chat-hub/rooms"

	"github.com/google/uuid"
)

type Coordinator struct {
	log       *slog.Logger
	transport contract.Transport
	presence  *presence.Registry
	rooms     *rooms.Directory
}

func NewCoordinator(log *slog.Logger, transport contract.Transport, reg *presence.Registry, dir *rooms.Directory) *Coordinator {
	return &Coordinator{log: log, transport: transport, presence: reg, rooms: dir}
}

// Invite delivers a room invitation to an online target and echoes an
// acknowledgment to the sender. The invite itself is carried entirely
// in the two events; there is no pending-state table.
func (c *Coordinator) Invite(from domain.Session, toConnectionID, roomName string) error {
	if _, online := c.presence.Find(toConnectionID); !online {
		return fmt.Errorf("%w: %s", errors.ErrTargetOffline, toConnectionID)
	}

	c.transport.Emit(toConnectionID, event.RoomInvite{
		RoomName:       roomName,
		FromUsername:   from.Username,
		FromConnection: from.ConnectionID,
	})
	c.transport.Emit(from.ConnectionID, event.InviteSent{RoomName: roomName})
	c.log.Info("invite sent", "room", roomName, "from", from.Username, "to", toConnectionID)
	return nil
}

// Accept grants the accepting user membership, subscribes their
// connection and notifies the original inviter. A room deleted while
// the invite was pending surfaces as RoomNotFound.
func (c *Coordinator) Accept(accepter domain.Session, roomName, fromConnectionID string) error {
	if err := c.rooms.Admit(accepter.Username, roomName); err != nil {
		return err
	}
	c.transport.JoinRoom(accepter.ConnectionID, domain.RoomKey(roomName))
	c.transport.Emit(accepter.ConnectionID, event.RoomJoined(roomName))
	c.transport.Emit(fromConnectionID, event.InviteAccepted{RoomName: roomName})
	c.log.Info("invite accepted", "room", roomName, "by", accepter.Username)
	return nil
}

// Ignore notifies the inviter only; no state changes.
func (c *Coordinator) Ignore(accepter domain.Session, roomName, fromConnectionID string) {
	c.transport.Emit(fromConnectionID, event.InviteIgnored{RoomName: roomName})
	c.log.Info("invite ignored", "room", roomName, "by", accepter.Username)
}

// RequestPrivateChat forwards an ad-hoc chat request to an online
// target.
func (c *Coordinator) RequestPrivateChat(from domain.Session, toConnectionID string) error {
	if _, online := c.presence.Find(toConnectionID); !online {
		return fmt.Errorf("%w: %s", errors.ErrTargetOffline, toConnectionID)
	}
	c.transport.Emit(toConnectionID, event.PrivateChatRequest{
		FromUsername:   from.Username,
		FromConnection: from.ConnectionID,
	})
	return nil
}

// AcceptPrivateChat synthesizes a fresh uniquely named room for the
// two parties, admits both and subscribes both connections. Either
// both ends come up or the room is not created: the requester must
// still be online before anything is touched, and the in-memory joins
// that follow cannot fail.
func (c *Coordinator) AcceptPrivateChat(accepter domain.Session, fromConnectionID string) error {
	requester, online := c.presence.Find(fromConnectionID)
	if !online {
		return fmt.Errorf("%w: %s", errors.ErrTargetOffline, fromConnectionID)
	}

	name := privateRoomName(requester.Username, accepter.Username)
	room, err := c.rooms.Create(requester, name)
	if err != nil {
		return err
	}
	if err := c.rooms.Admit(accepter.Username, room.Name); err != nil {
		return err
	}
	c.transport.JoinRoom(accepter.ConnectionID, room.Key())

	c.transport.Emit(requester.ConnectionID, event.RoomJoined(room.Name))
	c.transport.Emit(accepter.ConnectionID, event.RoomJoined(room.Name))
	c.log.Info("private chat established", "room", room.Name,
		"requester", requester.Username, "accepter", accepter.Username)
	return nil
}

// privateRoomName derives a unique room name from both identities, a
// timestamp and a short random suffix so repeated pairs never collide.
func privateRoomName(a, b string) string {
	return fmt.Sprintf("dm-%s-%s-%d-%s", a, b, time.Now().Unix(), uuid.NewString()[:8])
}
