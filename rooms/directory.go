// Package rooms is the room directory: name uniqueness, ownership and
// membership rules. Rooms live in memory only; their messages are the
// store's problem.
package rooms

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/moderation"
)

type Directory struct {
	mu        sync.Mutex
	log       *slog.Logger
	transport contract.Transport
	store     contract.MessageStore
	guard     *moderation.Guard

	rooms map[string]*domain.Room // keyed by RoomKey(name)
}

func NewDirectory(log *slog.Logger, transport contract.Transport, store contract.MessageStore, guard *moderation.Guard) *Directory {
	d := &Directory{
		log:       log,
		transport: transport,
		store:     store,
		guard:     guard,
		rooms:     make(map[string]*domain.Room),
	}
	// The global room exists for the process lifetime, has no owner
	// and is never deletable.
	d.rooms[domain.GlobalRoom] = domain.NewRoom(domain.GlobalRoom, "")
	return d
}

// Create registers a new room owned by the requester and subscribes
// the requester's connection to its broadcast group. The duplicate
// check and the insertion are atomic: two concurrent creates for the
// same name cannot both succeed.
func (d *Directory) Create(requester domain.Session, name string) (*domain.Room, error) {
	key := domain.RoomKey(name)
	if key == domain.GlobalRoom {
		return nil, fmt.Errorf("%w: %q is reserved", errors.ErrInvalidName, name)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", errors.ErrInvalidName)
	}

	d.mu.Lock()
	if _, exists := d.rooms[key]; exists {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", errors.ErrDuplicateRoom, name)
	}
	room := domain.NewRoom(name, requester.Username)
	d.rooms[key] = room
	d.mu.Unlock()

	d.transport.JoinRoom(requester.ConnectionID, key)
	d.log.Info("room created", "room", room.Name, "owner", requester.Username)
	return room, nil
}

// Delete removes a room, cascades the persisted message delete and
// notifies every subscribed connection so they can fall back to
// global. Who may delete is the guard's call; this only maps a
// refusal to the precise error. The in-memory removal is atomic; the
// store cascade runs after it, outside the lock.
func (d *Directory) Delete(ctx context.Context, requester domain.Session, name string) error {
	key := domain.RoomKey(name)

	d.mu.Lock()
	room, ok := d.rooms[key]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", errors.ErrRoomNotFound, name)
	}
	if !d.guard.AuthorizeRoomDelete(requester.Username, room) {
		d.mu.Unlock()
		if room.Protected() {
			return errors.ErrProtectedRoom
		}
		return fmt.Errorf("%w: %q belongs to %q", errors.ErrNotOwner, room.Name, room.Owner)
	}
	delete(d.rooms, key)
	d.mu.Unlock()

	deleted, err := d.store.DeleteByRoom(ctx, key)
	if err != nil {
		// Room is already gone from the directory; surface the store
		// failure in the logs only, the deletion itself stands.
		d.log.Error("message cascade failed", "room", room.Name, "err", err)
	} else {
		d.log.Info("room deleted", "room", room.Name, "messages_removed", deleted)
	}
	return nil
}

// Join subscribes the connection to the room's broadcast group and
// returns the room's message history, oldest first. Joining a room
// the caller is not a member of is permitted at the subscription
// level and does not grant membership; invites remain the authorized
// path for membership.
func (d *Directory) Join(ctx context.Context, connectionID, name string) ([]domain.Message, error) {
	key := domain.RoomKey(name)
	d.transport.JoinRoom(connectionID, key)

	history, err := d.store.FindByRoom(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: history for %q: %v", errors.ErrPersistence, name, err)
	}
	return history, nil
}

// Leave unsubscribes the connection. Membership is untouched.
func (d *Directory) Leave(connectionID, name string) {
	d.transport.LeaveRoom(connectionID, domain.RoomKey(name))
}

// LeavePermanently drops membership and unsubscribes. A missing room
// is a silent no-op.
func (d *Directory) LeavePermanently(username, connectionID, name string) {
	key := domain.RoomKey(name)

	d.mu.Lock()
	if room, ok := d.rooms[key]; ok {
		room.RemoveMember(username)
	}
	d.mu.Unlock()

	d.transport.LeaveRoom(connectionID, key)
}

// Admit grants membership, used by the invite flow.
func (d *Directory) Admit(username, name string) error {
	key := domain.RoomKey(name)

	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[key]
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrRoomNotFound, name)
	}
	room.AddMember(username)
	return nil
}

// Get looks a room up by name.
func (d *Directory) Get(name string) (*domain.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[domain.RoomKey(name)]
	return room, ok
}

// ListFor returns the display names of every room the username is a
// member of.
func (d *Directory) ListFor(username string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, room := range d.rooms {
		if room.IsMember(username) {
			out = append(out, room.Name)
		}
	}
	return out
}
