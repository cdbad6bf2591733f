// Package event defines the closed set of outbound wire events.
// Event names and payload shapes are the wire contract the browser
// client depends on; they must not drift.
package event

import (
	"time"

	"chat-hub/domain"
)

// Event is an outbound notification. The value itself marshals to the
// wire payload; Name returns the event name verbatim.
type Event interface {
	Name() string
}

// OnlineUser is one entry of the full presence snapshot.
type OnlineUser struct {
	ConnectionID string `json:"socketId"`
	Username     string `json:"username"`
	Role         string `json:"role"`
}

// OnlineUsers is the full presence snapshot, broadcast to every
// connection on each register/unregister. Always a snapshot, never a
// delta.
type OnlineUsers []OnlineUser

func (OnlineUsers) Name() string { return "online-users" }

// MessagePayload is the wire form of a persisted message. Field names
// follow the original document schema, including the "_id" key.
type MessagePayload struct {
	ID        string    `json:"_id"`
	Sender    string    `json:"sender"`
	Room      string    `json:"room"`
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	FileURL   string    `json:"fileUrl,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromMessage converts a stored message into its wire form.
func FromMessage(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:        m.ID.String(),
		Sender:    m.Sender,
		Room:      m.Room,
		Type:      string(m.Kind),
		Message:   m.Body,
		FileURL:   m.FileRef,
		FileName:  m.FileName,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

// RoomMessage carries a persisted text message to a room.
type RoomMessage MessagePayload

func (RoomMessage) Name() string { return "room-message" }

// FileMessage carries a persisted file/image/audio message to a room.
type FileMessage MessagePayload

func (FileMessage) Name() string { return "file-message" }

// RoomHistory is the ordered backlog delivered on join-room.
type RoomHistory []MessagePayload

func (RoomHistory) Name() string { return "room-history" }

// RoomCreated confirms room creation to the creator only.
type RoomCreated struct {
	RoomName string `json:"roomName"`
}

func (RoomCreated) Name() string { return "room-created" }

// RoomJoined tells a connection it is now subscribed to a room.
type RoomJoined string

func (RoomJoined) Name() string { return "room-joined" }

// RoomDeleted tells subscribers their room is gone so they can fall
// back to global.
type RoomDeleted string

func (RoomDeleted) Name() string { return "room-deleted" }

// ExistingRooms lists the rooms a username is a member of, delivered
// once after join.
type ExistingRooms []string

func (ExistingRooms) Name() string { return "existing-rooms" }

// RoomError reports a validation failure back to the originating
// connection only.
type RoomError string

func (RoomError) Name() string { return "room-error" }

// DeleteMessage announces a message removal by id.
type DeleteMessage string

func (DeleteMessage) Name() string { return "delete-message" }

// MessageSeen announces a status flip by id, best effort.
type MessageSeen string

func (MessageSeen) Name() string { return "message-seen" }

// Typing forwards a typing indicator.
type Typing struct {
	Username string `json:"username"`
}

func (Typing) Name() string { return "typing" }

// StopTyping clears a typing indicator.
type StopTyping struct{}

func (StopTyping) Name() string { return "stop-typing" }

// Muted tells a sender its messages are being rejected.
type Muted struct{}

func (Muted) Name() string { return "muted" }

// Kicked precedes a forced disconnect.
type Kicked struct{}

func (Kicked) Name() string { return "kicked" }

// RoomInvite delivers an invitation to the target connection.
type RoomInvite struct {
	RoomName       string `json:"roomName"`
	FromUsername   string `json:"fromUsername"`
	FromConnection string `json:"fromSocketId"`
}

func (RoomInvite) Name() string { return "room-invite" }

// InviteSent acknowledges the invite to its sender.
type InviteSent struct {
	RoomName string `json:"roomName"`
}

func (InviteSent) Name() string { return "invite-sent" }

// InviteAccepted notifies the original inviter.
type InviteAccepted struct {
	RoomName string `json:"roomName"`
}

func (InviteAccepted) Name() string { return "invite-accepted" }

// InviteIgnored notifies the original inviter.
type InviteIgnored struct {
	RoomName string `json:"roomName"`
}

func (InviteIgnored) Name() string { return "invite-ignored" }

// PrivateChatRequest delivers an ad-hoc chat request to the target.
type PrivateChatRequest struct {
	FromUsername   string `json:"fromUsername"`
	FromConnection string `json:"fromSocketId"`
}

func (PrivateChatRequest) Name() string { return "private-chat-request" }
