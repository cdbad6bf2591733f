package domain

// Command is the closed set of inbound wire events. Every named event
// the transport accepts maps to exactly one concrete type here, so the
// coordinator's dispatch switch is exhaustive at compile time instead
// of a map of dynamically keyed handlers.
//
// ConnectionID fields are stamped by the transport after decoding and
// never read from the wire.
type Command interface {
	EventName() string
}

// JoinCommand registers an identity for the connection ("join").
// Username and role come from the external identity provider and are
// trusted as given.
type JoinCommand struct {
	ConnectionID string `json:"-"`
	Username     string `json:"username" validate:"required,max=64"`
	Role         string `json:"role"`
}

func (JoinCommand) EventName() string { return "join" }

// JoinRoomCommand subscribes the connection to a room's broadcast
// group and requests its history ("join-room"). Joining does not by
// itself grant membership; see rooms.Directory.
type JoinRoomCommand struct {
	ConnectionID string `json:"-"`
	Room         string `validate:"required,max=64"`
}

func (JoinRoomCommand) EventName() string { return "join-room" }

// LeaveRoomCommand unsubscribes the connection ("leave-room").
// Membership is untouched.
type LeaveRoomCommand struct {
	ConnectionID string `json:"-"`
	Room         string `validate:"required,max=64"`
}

func (LeaveRoomCommand) EventName() string { return "leave-room" }

// LeaveRoomPermanentlyCommand drops membership as well
// ("leave-room-permanently").
type LeaveRoomPermanentlyCommand struct {
	ConnectionID string `json:"-"`
	Room         string `validate:"required,max=64"`
}

func (LeaveRoomPermanentlyCommand) EventName() string { return "leave-room-permanently" }

// CreateRoomCommand creates a room owned by the requester
// ("create-room").
type CreateRoomCommand struct {
	ConnectionID string `json:"-"`
	RoomName     string `json:"roomName" validate:"required,max=64"`
}

func (CreateRoomCommand) EventName() string { return "create-room" }

// DeleteRoomCommand deletes a room and its persisted messages
// ("delete-room"). Owner only.
type DeleteRoomCommand struct {
	ConnectionID string `json:"-"`
	Room         string `validate:"required,max=64"`
}

func (DeleteRoomCommand) EventName() string { return "delete-room" }

// RoomMessageCommand sends a text message to a room ("room-message").
type RoomMessageCommand struct {
	ConnectionID string `json:"-"`
	Room         string `json:"room"`
	Sender       string `json:"sender" validate:"required,max=64"`
	Message      string `json:"message" validate:"max=4096"`
}

func (RoomMessageCommand) EventName() string { return "room-message" }

// FileMessageCommand relays a reference to an externally stored blob
// ("file-message"). Type must be one of image, audio, file.
type FileMessageCommand struct {
	ConnectionID string `json:"-"`
	Room         string `json:"room"`
	Sender       string `json:"sender" validate:"required,max=64"`
	Type         string `json:"type" validate:"required"`
	FileURL      string `json:"fileUrl" validate:"required,max=2048"`
	FileName     string `json:"fileName" validate:"max=255"`
}

func (FileMessageCommand) EventName() string { return "file-message" }

// DeleteMessageCommand removes a message by id ("delete-message").
// Allowed for the sender, moderators and admins; refused silently
// otherwise.
type DeleteMessageCommand struct {
	ConnectionID string `json:"-"`
	MessageID    string `json:"messageId" validate:"required"`
	Username     string `json:"username" validate:"required,max=64"`
}

func (DeleteMessageCommand) EventName() string { return "delete-message" }

// MessageSeenCommand flips a message status to seen ("message-seen").
type MessageSeenCommand struct {
	ConnectionID string `json:"-"`
	MessageID    string `validate:"required"`
}

func (MessageSeenCommand) EventName() string { return "message-seen" }

// TypingCommand forwards a typing indicator ("typing").
type TypingCommand struct {
	ConnectionID string `json:"-"`
	Username     string `json:"username"`
	IsPrivate    bool   `json:"isPrivate"`
	ToConnection string `json:"toSocketId"`
}

func (TypingCommand) EventName() string { return "typing" }

// StopTypingCommand clears a typing indicator ("stop-typing").
type StopTypingCommand struct {
	ConnectionID string `json:"-"`
	IsPrivate    bool   `json:"isPrivate"`
	ToConnection string `json:"toSocketId"`
}

func (StopTypingCommand) EventName() string { return "stop-typing" }

// MuteUserCommand mutes a target connection ("mute-user").
type MuteUserCommand struct {
	ConnectionID string `json:"-"`
	TargetID     string `json:"targetSocketId" validate:"required"`
}

func (MuteUserCommand) EventName() string { return "mute-user" }

// KickUserCommand force-disconnects a target connection ("kick-user").
type KickUserCommand struct {
	ConnectionID string `json:"-"`
	TargetID     string `json:"targetSocketId" validate:"required"`
}

func (KickUserCommand) EventName() string { return "kick-user" }

// RoomInviteCommand invites another online user into a room
// ("room-invite").
type RoomInviteCommand struct {
	ConnectionID string `json:"-"`
	ToConnection string `json:"toSocketId" validate:"required"`
	RoomName     string `json:"roomName" validate:"required,max=64"`
	FromUsername string `json:"fromUsername" validate:"required,max=64"`
}

func (RoomInviteCommand) EventName() string { return "room-invite" }

// AcceptRoomInviteCommand accepts a pending invite
// ("accept-room-invite").
type AcceptRoomInviteCommand struct {
	ConnectionID   string `json:"-"`
	RoomName       string `json:"roomName" validate:"required,max=64"`
	FromConnection string `json:"fromSocketId" validate:"required"`
}

func (AcceptRoomInviteCommand) EventName() string { return "accept-room-invite" }

// IgnoreRoomInviteCommand declines a pending invite
// ("ignore-room-invite").
type IgnoreRoomInviteCommand struct {
	ConnectionID   string `json:"-"`
	RoomName       string `json:"roomName" validate:"required,max=64"`
	FromConnection string `json:"fromSocketId" validate:"required"`
}

func (IgnoreRoomInviteCommand) EventName() string { return "ignore-room-invite" }

// PrivateChatRequestCommand asks another online user to open an
// ad-hoc private room ("private-chat-request").
type PrivateChatRequestCommand struct {
	ConnectionID string `json:"-"`
	ToConnection string `json:"toSocketId" validate:"required"`
}

func (PrivateChatRequestCommand) EventName() string { return "private-chat-request" }

// PrivateChatAcceptCommand completes the private-chat handshake
// ("private-chat-accept"). A fresh uniquely named room is synthesized
// and both connections are subscribed; either both joins succeed or
// the room is not created at all.
type PrivateChatAcceptCommand struct {
	ConnectionID   string `json:"-"`
	FromConnection string `json:"fromSocketId" validate:"required"`
}

func (PrivateChatAcceptCommand) EventName() string { return "private-chat-accept" }

// LogoutCommand is an explicit client sign-off ("user-logout").
type LogoutCommand struct {
	ConnectionID string `json:"-"`
}

func (LogoutCommand) EventName() string { return "user-logout" }

// DisconnectCommand is the transport lifecycle event fired when a
// connection drops for any reason ("disconnect").
type DisconnectCommand struct {
	ConnectionID string `json:"-"`
}

func (DisconnectCommand) EventName() string { return "disconnect" }
