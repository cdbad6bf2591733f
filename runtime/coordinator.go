// Package runtime orchestrates the connection lifecycle and the
// message path. It owns the cross-component coordination; the domain
// rules themselves live in presence, rooms, invite and moderation.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/invite"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/presence"
	"chat-hub/rooms"

	"github.com/go-playground/validator/v10"
)

// Coordinator is the connection lifecycle manager: every inbound wire
// event lands here, is validated against presence/room state, mutates
// the registries as needed and, for messages, is handed to the Router.
//
// Lifecycle transitions (join, logout, disconnect, kick, duplicate
// eviction) are serialized under one lock so a forced disconnect fully
// unwinds a connection's state before any new event for the same
// identity is accepted.
type Coordinator struct {
	mu        sync.Mutex
	log       *slog.Logger
	transport contract.Transport
	presence  *presence.Registry
	rooms     *rooms.Directory
	invites   *invite.Coordinator
	guard     *moderation.Guard
	router    *Router
	monitor   *observability.Monitor
	validate  *validator.Validate
}

func NewCoordinator(
	log *slog.Logger,
	transport contract.Transport,
	reg *presence.Registry,
	dir *rooms.Directory,
	invites *invite.Coordinator,
	guard *moderation.Guard,
	router *Router,
	monitor *observability.Monitor,
) *Coordinator {
	return &Coordinator{
		log:       log,
		transport: transport,
		presence:  reg,
		rooms:     dir,
		invites:   invites,
		guard:     guard,
		router:    router,
		monitor:   monitor,
		validate:  validator.New(),
	}
}

// Handle dispatches one inbound command. The switch is exhaustive over
// the closed command set; adding a wire event without a branch here is
// a compile-visible omission, not a silently dropped string key.
func (c *Coordinator) Handle(ctx context.Context, cmd domain.Command) {
	if err := c.validate.Struct(cmd); err != nil {
		c.log.Warn("malformed command dropped", "event", cmd.EventName(), "err", err)
		return
	}

	switch cmd := cmd.(type) {
	case domain.JoinCommand:
		c.handleJoin(cmd)
	case domain.JoinRoomCommand:
		c.handleJoinRoom(ctx, cmd)
	case domain.LeaveRoomCommand:
		c.rooms.Leave(cmd.ConnectionID, cmd.Room)
	case domain.LeaveRoomPermanentlyCommand:
		c.handleLeavePermanently(cmd)
	case domain.CreateRoomCommand:
		c.handleCreateRoom(cmd)
	case domain.DeleteRoomCommand:
		c.handleDeleteRoom(ctx, cmd)
	case domain.RoomMessageCommand:
		c.handleRoomMessage(ctx, cmd)
	case domain.FileMessageCommand:
		c.handleFileMessage(ctx, cmd)
	case domain.DeleteMessageCommand:
		c.handleDeleteMessage(ctx, cmd)
	case domain.MessageSeenCommand:
		if err := c.router.MarkSeen(ctx, cmd.ConnectionID, cmd.MessageID); err != nil {
			c.log.Debug("message-seen ignored", "id", cmd.MessageID, "err", err)
		}
	case domain.TypingCommand:
		c.handleTyping(cmd)
	case domain.StopTypingCommand:
		c.handleStopTyping(cmd)
	case domain.MuteUserCommand:
		c.handleMute(cmd)
	case domain.KickUserCommand:
		c.handleKick(cmd)
	case domain.RoomInviteCommand:
		c.handleInvite(cmd)
	case domain.AcceptRoomInviteCommand:
		c.handleAcceptInvite(cmd)
	case domain.IgnoreRoomInviteCommand:
		c.handleIgnoreInvite(cmd)
	case domain.PrivateChatRequestCommand:
		c.handlePrivateChatRequest(cmd)
	case domain.PrivateChatAcceptCommand:
		c.handlePrivateChatAccept(cmd)
	case domain.LogoutCommand:
		c.unwind(cmd.ConnectionID)
		c.transport.Disconnect(cmd.ConnectionID)
	case domain.DisconnectCommand:
		c.unwind(cmd.ConnectionID)
	default:
		c.log.Warn("command without handler", "event", cmd.EventName())
	}
}

// handleJoin registers the identity, enforcing last-join-wins: a prior
// connection for the same username is fully unwound and force-closed
// before the new session becomes visible.
func (c *Coordinator) handleJoin(cmd domain.JoinCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.presence.FindByUsername(cmd.Username); ok && prev.ConnectionID != cmd.ConnectionID {
		c.log.Info("duplicate login, evicting previous connection",
			"username", cmd.Username, "previous", prev.ConnectionID, "new", cmd.ConnectionID)
		c.unwindLocked(prev.ConnectionID)
		c.transport.Disconnect(prev.ConnectionID)
	}

	role := domain.ParseRole(cmd.Role)
	c.presence.Register(cmd.ConnectionID, cmd.Username, role)
	c.monitor.SessionUp()

	// Every session starts subscribed to global; membership rooms are
	// re-announced so the client can rebuild its room list.
	c.transport.JoinRoom(cmd.ConnectionID, domain.GlobalRoom)
	if memberOf := c.rooms.ListFor(cmd.Username); len(memberOf) > 0 {
		c.transport.Emit(cmd.ConnectionID, event.ExistingRooms(memberOf))
	}
}

func (c *Coordinator) handleJoinRoom(ctx context.Context, cmd domain.JoinRoomCommand) {
	history, err := c.rooms.Join(ctx, cmd.ConnectionID, cmd.Room)
	if err != nil {
		c.log.Error("history load failed", "room", cmd.Room, "err", err)
		c.transport.Emit(cmd.ConnectionID, event.RoomError("could not load room history"))
		return
	}

	payload := make(event.RoomHistory, 0, len(history))
	for _, m := range history {
		payload = append(payload, event.FromMessage(m))
	}
	c.transport.Emit(cmd.ConnectionID, payload)
}

func (c *Coordinator) handleLeavePermanently(cmd domain.LeaveRoomPermanentlyCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}
	c.rooms.LeavePermanently(sess.Username, cmd.ConnectionID, cmd.Room)
}

func (c *Coordinator) handleCreateRoom(cmd domain.CreateRoomCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		c.log.Warn("create-room from unregistered connection", "connection_id", cmd.ConnectionID)
		return
	}

	room, err := c.rooms.Create(sess, cmd.RoomName)
	if err != nil {
		c.transport.Emit(cmd.ConnectionID, event.RoomError(err.Error()))
		return
	}
	c.transport.Emit(cmd.ConnectionID, event.RoomCreated{RoomName: room.Name})
}

func (c *Coordinator) handleDeleteRoom(ctx context.Context, cmd domain.DeleteRoomCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}

	room, exists := c.rooms.Get(cmd.Room)
	if err := c.rooms.Delete(ctx, sess, cmd.Room); err != nil {
		c.transport.Emit(cmd.ConnectionID, event.RoomError(err.Error()))
		return
	}
	if exists {
		// Subscribers fall back to global on their side. The group is
		// torn down so a later room with the same name starts clean.
		c.transport.BroadcastRoom(room.Key(), event.RoomDeleted(room.Name))
		c.transport.DropRoom(room.Key())
	}
}

func (c *Coordinator) handleRoomMessage(ctx context.Context, cmd domain.RoomMessageCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		c.log.Warn("message from unregistered connection", "connection_id", cmd.ConnectionID)
		return
	}

	m := domain.Message{
		Sender: sess.Username,
		Room:   cmd.Room,
		Kind:   domain.KindText,
		Body:   cmd.Message,
	}
	if err := c.router.Send(ctx, sess, m); err != nil {
		c.log.Debug("room-message rejected", "sender", sess.Username, "err", err)
	}
}

func (c *Coordinator) handleFileMessage(ctx context.Context, cmd domain.FileMessageCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}

	m := domain.Message{
		Sender:   sess.Username,
		Room:     cmd.Room,
		Kind:     domain.Kind(cmd.Type),
		FileRef:  cmd.FileURL,
		FileName: cmd.FileName,
	}
	if err := c.router.Send(ctx, sess, m); err != nil {
		c.log.Debug("file-message rejected", "sender", sess.Username, "err", err)
	}
}

func (c *Coordinator) handleDeleteMessage(ctx context.Context, cmd domain.DeleteMessageCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}
	if err := c.router.Delete(ctx, sess, cmd.MessageID); err != nil {
		c.log.Debug("delete-message failed", "id", cmd.MessageID, "err", err)
	}
}

// handleTyping relays the indicator either to one private target or to
// every other connection. The sender is excluded; seeing your own
// typing notice is noise.
func (c *Coordinator) handleTyping(cmd domain.TypingCommand) {
	if cmd.IsPrivate && cmd.ToConnection != "" {
		c.transport.Emit(cmd.ToConnection, event.Typing{Username: cmd.Username})
		return
	}
	for _, s := range c.presence.ListOnline() {
		if s.ConnectionID != cmd.ConnectionID {
			c.transport.Emit(s.ConnectionID, event.Typing{Username: cmd.Username})
		}
	}
}

func (c *Coordinator) handleStopTyping(cmd domain.StopTypingCommand) {
	if cmd.IsPrivate && cmd.ToConnection != "" {
		c.transport.Emit(cmd.ToConnection, event.StopTyping{})
		return
	}
	for _, s := range c.presence.ListOnline() {
		if s.ConnectionID != cmd.ConnectionID {
			c.transport.Emit(s.ConnectionID, event.StopTyping{})
		}
	}
}

func (c *Coordinator) handleMute(cmd domain.MuteUserCommand) {
	if !c.moderatorSession(cmd.ConnectionID) {
		return
	}
	c.guard.Mute(cmd.TargetID)
}

func (c *Coordinator) handleKick(cmd domain.KickUserCommand) {
	if !c.moderatorSession(cmd.ConnectionID) {
		return
	}

	c.mu.Lock()
	c.unwindLocked(cmd.TargetID)
	c.mu.Unlock()
	c.guard.Kick(cmd.TargetID)
}

func (c *Coordinator) handleInvite(cmd domain.RoomInviteCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}
	if err := c.invites.Invite(sess, cmd.ToConnection, cmd.RoomName); err != nil {
		c.transport.Emit(cmd.ConnectionID, event.RoomError("user is no longer online"))
	}
}

func (c *Coordinator) handleAcceptInvite(cmd domain.AcceptRoomInviteCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}
	if err := c.invites.Accept(sess, cmd.RoomName, cmd.FromConnection); err != nil {
		c.transport.Emit(cmd.ConnectionID, event.RoomError(err.Error()))
	}
}

func (c *Coordinator) handleIgnoreInvite(cmd domain.IgnoreRoomInviteCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}
	c.invites.Ignore(sess, cmd.RoomName, cmd.FromConnection)
}

func (c *Coordinator) handlePrivateChatRequest(cmd domain.PrivateChatRequestCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}
	if err := c.invites.RequestPrivateChat(sess, cmd.ToConnection); err != nil {
		c.transport.Emit(cmd.ConnectionID, event.RoomError("user is no longer online"))
	}
}

func (c *Coordinator) handlePrivateChatAccept(cmd domain.PrivateChatAcceptCommand) {
	sess, ok := c.presence.Find(cmd.ConnectionID)
	if !ok {
		return
	}
	if err := c.invites.AcceptPrivateChat(sess, cmd.FromConnection); err != nil {
		c.transport.Emit(cmd.ConnectionID, event.RoomError(err.Error()))
	}
}

// moderatorSession checks that the acting connection holds a
// moderation-capable role. The identity provider decides roles; this
// is only the enforcement point.
func (c *Coordinator) moderatorSession(connectionID string) bool {
	sess, ok := c.presence.Find(connectionID)
	if !ok || !sess.Role.CanModerate() {
		c.log.Warn("moderation action refused", "connection_id", connectionID)
		return false
	}
	return true
}

// unwind removes every trace of a connection: mute state first, then
// the session itself. Transport group subscriptions die with the
// connection. Cleanup must never fail loudly toward the now-gone
// connection; it logs internally only.
func (c *Coordinator) unwind(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unwindLocked(connectionID)
}

func (c *Coordinator) unwindLocked(connectionID string) {
	c.guard.ClearMute(connectionID)
	if _, ok := c.presence.Find(connectionID); ok {
		c.presence.Unregister(connectionID)
		c.monitor.SessionDown()
	}
}
