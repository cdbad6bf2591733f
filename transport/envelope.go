package transport

import (
	"encoding/json"
	"fmt"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
)

// envelope is the wire frame: a named event and its JSON payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// decodeFrame parses a raw inbound frame into its command.
func decodeFrame(frame []byte) (domain.Command, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	return decodeCommand(env)
}

func encodeEvent(e event.Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %q payload: %w", e.Name(), err)
	}
	return json.Marshal(envelope{Event: e.Name(), Data: data})
}

// decodeCommand maps an inbound envelope to its command type. Event
// names are the wire contract; anything outside the closed set is
// rejected. Connection ids are stamped by the caller, never trusted
// from the wire.
func decodeCommand(env envelope) (domain.Command, error) {
	switch env.Event {
	case "join":
		return unmarshalInto[domain.JoinCommand](env.Data)
	case "join-room":
		room, err := unmarshalString(env.Data)
		return domain.JoinRoomCommand{Room: room}, err
	case "leave-room":
		room, err := unmarshalString(env.Data)
		return domain.LeaveRoomCommand{Room: room}, err
	case "leave-room-permanently":
		room, err := unmarshalString(env.Data)
		return domain.LeaveRoomPermanentlyCommand{Room: room}, err
	case "create-room":
		return unmarshalInto[domain.CreateRoomCommand](env.Data)
	case "delete-room":
		room, err := unmarshalString(env.Data)
		return domain.DeleteRoomCommand{Room: room}, err
	case "room-message":
		return unmarshalInto[domain.RoomMessageCommand](env.Data)
	case "file-message":
		return unmarshalInto[domain.FileMessageCommand](env.Data)
	case "delete-message":
		return unmarshalInto[domain.DeleteMessageCommand](env.Data)
	case "message-seen":
		id, err := unmarshalString(env.Data)
		return domain.MessageSeenCommand{MessageID: id}, err
	case "typing":
		return unmarshalInto[domain.TypingCommand](env.Data)
	case "stop-typing":
		return unmarshalInto[domain.StopTypingCommand](env.Data)
	case "mute-user":
		return unmarshalInto[domain.MuteUserCommand](env.Data)
	case "kick-user":
		return unmarshalInto[domain.KickUserCommand](env.Data)
	case "room-invite":
		return unmarshalInto[domain.RoomInviteCommand](env.Data)
	case "accept-room-invite":
		return unmarshalInto[domain.AcceptRoomInviteCommand](env.Data)
	case "ignore-room-invite":
		return unmarshalInto[domain.IgnoreRoomInviteCommand](env.Data)
	case "private-chat-request":
		return unmarshalInto[domain.PrivateChatRequestCommand](env.Data)
	case "private-chat-accept":
		return unmarshalInto[domain.PrivateChatAcceptCommand](env.Data)
	case "user-logout":
		return domain.LogoutCommand{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, env.Event)
	}
}

func unmarshalInto[T domain.Command](data json.RawMessage) (T, error) {
	var cmd T
	if len(data) == 0 {
		return cmd, nil
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	return cmd, nil
}

// unmarshalString handles the events whose payload is a bare JSON
// string rather than an object.
func unmarshalString(data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("%w: expected string payload: %v", errors.ErrInvalidCommand, err)
	}
	return s, nil
}

// stampConnection sets the connection id on a decoded command. The
// switch mirrors the closed command set.
func stampConnection(cmd domain.Command, connectionID string) domain.Command {
	switch c := cmd.(type) {
	case domain.JoinCommand:
		c.ConnectionID = connectionID
		return c
	case domain.JoinRoomCommand:
		c.ConnectionID = connectionID
		return c
	case domain.LeaveRoomCommand:
		c.ConnectionID = connectionID
		return c
	case domain.LeaveRoomPermanentlyCommand:
		c.ConnectionID = connectionID
		return c
	case domain.CreateRoomCommand:
		c.ConnectionID = connectionID
		return c
	case domain.DeleteRoomCommand:
		c.ConnectionID = connectionID
		return c
	case domain.RoomMessageCommand:
		c.ConnectionID = connectionID
		return c
	case domain.FileMessageCommand:
		c.ConnectionID = connectionID
		return c
	case domain.DeleteMessageCommand:
		c.ConnectionID = connectionID
		return c
	case domain.MessageSeenCommand:
		c.ConnectionID = connectionID
		return c
	case domain.TypingCommand:
		c.ConnectionID = connectionID
		return c
	case domain.StopTypingCommand:
		c.ConnectionID = connectionID
		return c
	case domain.MuteUserCommand:
		c.ConnectionID = connectionID
		return c
	case domain.KickUserCommand:
		c.ConnectionID = connectionID
		return c
	case domain.RoomInviteCommand:
		c.ConnectionID = connectionID
		return c
	case domain.AcceptRoomInviteCommand:
		c.ConnectionID = connectionID
		return c
	case domain.IgnoreRoomInviteCommand:
		c.ConnectionID = connectionID
		return c
	case domain.PrivateChatRequestCommand:
		c.ConnectionID = connectionID
		return c
	case domain.PrivateChatAcceptCommand:
		c.ConnectionID = connectionID
		return c
	case domain.LogoutCommand:
		c.ConnectionID = connectionID
		return c
	case domain.DisconnectCommand:
		c.ConnectionID = connectionID
		return c
	default:
		return cmd
	}
}
