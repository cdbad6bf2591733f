// Package moderation holds the mute set, kick handling, delete
// authorization and the text censor.
package moderation

import (
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
)

// Guard tracks muted connections and authorizes moderation actions.
// Mutes are keyed by connection id and therefore do not survive a
// reconnect; persistent moderation would key by username instead.
type Guard struct {
	mu        sync.Mutex
	log       *slog.Logger
	transport contract.Transport
	muted     map[string]struct{}
}

func NewGuard(log *slog.Logger, transport contract.Transport) *Guard {
	return &Guard{
		log:       log,
		transport: transport,
		muted:     make(map[string]struct{}),
	}
}

// Mute silences a connection and tells it so. While muted, the router
// rejects its sends; nobody else is notified.
func (g *Guard) Mute(targetConnectionID string) {
	g.mu.Lock()
	g.muted[targetConnectionID] = struct{}{}
	g.mu.Unlock()

	g.log.Info("connection muted", "connection_id", targetConnectionID)
	g.transport.Emit(targetConnectionID, event.Muted{})
}

// IsMuted reports whether the connection is currently silenced.
func (g *Guard) IsMuted(connectionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.muted[connectionID]
	return ok
}

// ClearMute removes a connection from the mute set. Called on
// disconnect; a vanished connection id must not linger here.
func (g *Guard) ClearMute(connectionID string) {
	g.mu.Lock()
	delete(g.muted, connectionID)
	g.mu.Unlock()
}

// Kick notifies the target and force-closes its connection. The
// transport then fires the normal disconnect lifecycle, which unwinds
// presence, subscriptions and the mute set.
func (g *Guard) Kick(targetConnectionID string) {
	g.log.Info("connection kicked", "connection_id", targetConnectionID)
	g.transport.Emit(targetConnectionID, event.Kicked{})
	g.transport.Disconnect(targetConnectionID)
}

// AuthorizeMessageDelete permits deletion by the message's sender or
// by moderators and admins.
func (g *Guard) AuthorizeMessageDelete(requester string, role domain.Role, m domain.Message) bool {
	return requester == m.Sender || role.CanModerate()
}

// AuthorizeRoomDelete permits room deletion by the owner only. Admins
// are deliberately excluded: room lifecycle is kept separate from
// message moderation.
func (g *Guard) AuthorizeRoomDelete(requester string, room *domain.Room) bool {
	return room != nil && !room.Protected() && room.Owner == requester
}
