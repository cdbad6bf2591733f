// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once persisted, except for the status flip
// to "seen".
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the fixed enumeration of message payload types.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindFile  Kind = "file"
)

// ParseKind validates a wire value against the closed Kind set.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindText, KindImage, KindAudio, KindFile:
		return Kind(s), true
	default:
		return "", false
	}
}

// Status tracks delivery acknowledgement of a message.
type Status string

const (
	StatusSent Status = "sent"
	StatusSeen Status = "seen"
)

// Message is one chat event, durable in the store from the moment it
// is assigned an ID. Body is set iff Kind is text; FileRef/FileName
// are set iff Kind is image, audio or file. FileRef points at an
// externally stored blob, this process never touches the bytes.
type Message struct {
	ID        uuid.UUID
	Sender    string
	Room      string
	Kind      Kind
	Body      string
	FileRef   string
	FileName  string
	Status    Status
	CreatedAt time.Time
}

// IsText reports whether the message carries inline text.
func (m Message) IsText() bool { return m.Kind == KindText }

// EmptyText reports whether a text message trims down to nothing.
// Empty sends are ignored silently, mirroring the client behavior.
func (m Message) EmptyText() bool {
	return m.IsText() && strings.TrimSpace(m.Body) == ""
}
