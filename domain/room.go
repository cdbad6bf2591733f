package domain

import (
	"sort"
	"strings"
	"time"
)

// GlobalRoom is the reserved, permanent room every connection lands in.
// It has no owner and can never be created or deleted.
const GlobalRoom = "global"

// RoomKey normalizes a room name for case-insensitive lookups.
// Display names keep the case chosen at creation time.
func RoomKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Room tracks ownership and admitted members of a chat room.
// Membership is granted by creation or invite acceptance only;
// transport subscriptions are a separate per-connection concern.
// Rooms are process-transient: they vanish on restart while their
// messages stay durable in the store.
type Room struct {
	Name      string
	Owner     string
	CreatedAt time.Time

	members map[string]struct{}
}

func NewRoom(name, owner string) *Room {
	r := &Room{
		Name:      strings.TrimSpace(name),
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
		members:   make(map[string]struct{}),
	}
	if owner != "" {
		r.members[owner] = struct{}{}
	}
	return r
}

func (r *Room) Key() string { return RoomKey(r.Name) }

// Protected reports whether the room is exempt from deletion.
func (r *Room) Protected() bool { return r.Key() == GlobalRoom }

func (r *Room) AddMember(username string) {
	r.members[username] = struct{}{}
}

func (r *Room) RemoveMember(username string) {
	delete(r.members, username)
}

func (r *Room) IsMember(username string) bool {
	_, ok := r.members[username]
	return ok
}

// Members returns a sorted snapshot of admitted usernames.
func (r *Room) Members() []string {
	out := make([]string, 0, len(r.members))
	for m := range r.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
