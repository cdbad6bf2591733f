package presence

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-hub/domain"
	"chat-hub/domain/event"
)

// transportSink records every emitted event instead of writing to a
// socket.
type transportSink struct {
	mu         sync.Mutex
	broadcasts []event.Event
	emitted    map[string][]event.Event
}

func newTransportSink() *transportSink {
	return &transportSink{emitted: make(map[string][]event.Event)}
}

func (s *transportSink) Emit(connectionID string, e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted[connectionID] = append(s.emitted[connectionID], e)
}

func (s *transportSink) BroadcastAll(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcasts = append(s.broadcasts, e)
}

func (s *transportSink) BroadcastRoom(string, event.Event)               {}
func (s *transportSink) BroadcastRoomExcept(string, string, event.Event) {}
func (s *transportSink) JoinRoom(string, string)                         {}
func (s *transportSink) LeaveRoom(string, string)                        {}
func (s *transportSink) DropRoom(string)                                 {}
func (s *transportSink) Disconnect(string)                               {}

func (s *transportSink) lastBroadcast() event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.broadcasts) == 0 {
		return nil
	}
	return s.broadcasts[len(s.broadcasts)-1]
}

func TestRegistry_RegisterBroadcastsSnapshot(t *testing.T) {
	req := require.New(t)
	sink := newTransportSink()
	reg := NewRegistry(slog.Default(), sink)

	// When two users register
	reg.Register("conn-1", "alice", domain.RoleAdmin)
	reg.Register("conn-2", "bob", domain.RoleMember)

	// Then the last broadcast is the full snapshot in insertion order
	snapshot, ok := sink.lastBroadcast().(event.OnlineUsers)
	req.True(ok)
	req.Len(snapshot, 2)
	req.Equal("alice", snapshot[0].Username)
	req.Equal("bob", snapshot[1].Username)
	req.Equal("conn-2", snapshot[1].ConnectionID)
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	sink := newTransportSink()
	reg := NewRegistry(slog.Default(), sink)

	reg.Register("conn-1", "alice", domain.RoleMember)
	reg.Unregister("conn-1")
	broadcastsAfterFirst := len(sink.broadcasts)

	// A second unregister must not broadcast again
	reg.Unregister("conn-1")
	req.Equal(broadcastsAfterFirst, len(sink.broadcasts))

	_, ok := reg.Find("conn-1")
	req.False(ok)
	req.Empty(reg.ListOnline())
}

func TestRegistry_FindByUsername(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(slog.Default(), newTransportSink())

	reg.Register("conn-1", "alice", domain.RoleModerator)

	s, ok := reg.FindByUsername("alice")
	req.True(ok)
	req.Equal("conn-1", s.ConnectionID)
	req.True(s.Role.CanModerate())

	_, ok = reg.FindByUsername("nobody")
	req.False(ok)
}

func TestRegistry_ReRegisterSameConnectionReplacesIdentity(t *testing.T) {
	req := require.New(t)
	sink := newTransportSink()
	reg := NewRegistry(slog.Default(), sink)

	reg.Register("conn-1", "alice", domain.RoleMember)
	reg.Register("conn-1", "alicia", domain.RoleMember)

	_, ok := reg.FindByUsername("alice")
	req.False(ok)
	s, ok := reg.FindByUsername("alicia")
	req.True(ok)
	req.Equal("conn-1", s.ConnectionID)
	req.Len(reg.ListOnline(), 1)
}
