package invite

import (
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/mocks"
	"chat-hub/moderation"
	"chat-hub/presence"
	"chat-hub/rooms"
)

// transportSink records emissions and tracks group subscriptions.
type transportSink struct {
	mu      sync.Mutex
	emitted map[string][]event.Event
	groups  map[string][]string
}

func newTransportSink() *transportSink {
	return &transportSink{
		emitted: make(map[string][]event.Event),
		groups:  make(map[string][]string),
	}
}

func (s *transportSink) Emit(connectionID string, e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted[connectionID] = append(s.emitted[connectionID], e)
}

func (s *transportSink) BroadcastAll(event.Event)                        {}
func (s *transportSink) BroadcastRoom(string, event.Event)               {}
func (s *transportSink) BroadcastRoomExcept(string, string, event.Event) {}
func (s *transportSink) DropRoom(string)                                 {}

func (s *transportSink) JoinRoom(connectionID, room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[room] = append(s.groups[room], connectionID)
}

func (s *transportSink) LeaveRoom(string, string) {}
func (s *transportSink) Disconnect(string)        {}

func (s *transportSink) eventsFor(connectionID string) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitted[connectionID]
}

type fixture struct {
	sink    *transportSink
	reg     *presence.Registry
	dir     *rooms.Directory
	invites *Coordinator
	alice   domain.Session
	bob     domain.Session
}

func newFixture(t *testing.T) fixture {
	log := slog.Default()
	sink := newTransportSink()
	ctrl := gomock.NewController(t)
	reg := presence.NewRegistry(log, sink)
	dir := rooms.NewDirectory(log, sink, mocks.NewMockMessageStore(ctrl), moderation.NewGuard(log, sink))

	reg.Register("conn-1", "alice", domain.RoleMember)
	reg.Register("conn-2", "bob", domain.RoleMember)

	return fixture{
		sink:    sink,
		reg:     reg,
		dir:     dir,
		invites: NewCoordinator(log, sink, reg, dir),
		alice:   domain.Session{ConnectionID: "conn-1", Username: "alice"},
		bob:     domain.Session{ConnectionID: "conn-2", Username: "bob"},
	}
}

func TestInvite_DeliveredToOnlineTarget(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.dir.Create(f.alice, "Study")
	req.NoError(err)

	req.NoError(f.invites.Invite(f.alice, "conn-2", "Study"))

	// Target gets the invite with enough context to answer
	bobEvents := f.sink.eventsFor("conn-2")
	req.Len(bobEvents, 1)
	inv, ok := bobEvents[0].(event.RoomInvite)
	req.True(ok)
	req.Equal("Study", inv.RoomName)
	req.Equal("alice", inv.FromUsername)
	req.Equal("conn-1", inv.FromConnection)

	// Sender gets the acknowledgment
	req.Contains(f.sink.eventsFor("conn-1"), event.InviteSent{RoomName: "Study"})
}

func TestInvite_OfflineTarget(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	err := f.invites.Invite(f.alice, "conn-ghost", "Study")
	req.ErrorIs(err, errors.ErrTargetOffline)
	req.Empty(f.sink.eventsFor("conn-1"))
}

func TestAccept_GrantsMembershipAndNotifiesBothEnds(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.dir.Create(f.alice, "Study")
	req.NoError(err)

	req.NoError(f.invites.Accept(f.bob, "Study", "conn-1"))

	room, ok := f.dir.Get("study")
	req.True(ok)
	req.True(room.IsMember("bob"))
	req.Contains(f.sink.groups["study"], "conn-2")
	req.Contains(f.sink.eventsFor("conn-2"), event.RoomJoined("Study"))
	req.Contains(f.sink.eventsFor("conn-1"), event.InviteAccepted{RoomName: "Study"})
}

func TestAccept_RoomDeletedMeanwhile(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	err := f.invites.Accept(f.bob, "vanished", "conn-1")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestIgnore_NotifiesInviterOnly(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.invites.Ignore(f.bob, "Study", "conn-1")

	req.Contains(f.sink.eventsFor("conn-1"), event.InviteIgnored{RoomName: "Study"})
	req.Empty(f.sink.eventsFor("conn-2"))
}

func TestPrivateChat_FullHandshake(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	req.NoError(f.invites.RequestPrivateChat(f.alice, "conn-2"))
	reqEvt, ok := f.sink.eventsFor("conn-2")[0].(event.PrivateChatRequest)
	req.True(ok)
	req.Equal("alice", reqEvt.FromUsername)

	req.NoError(f.invites.AcceptPrivateChat(f.bob, "conn-1"))

	// A fresh dm room now exists with both parties as members
	var created *domain.Room
	for _, name := range f.dir.ListFor("alice") {
		if strings.HasPrefix(name, "dm-alice-bob-") {
			created, _ = f.dir.Get(name)
		}
	}
	req.NotNil(created)
	req.True(created.IsMember("alice"))
	req.True(created.IsMember("bob"))

	// Both connections are subscribed and told about the room
	req.Contains(f.sink.groups[created.Key()], "conn-1")
	req.Contains(f.sink.groups[created.Key()], "conn-2")
}

func TestPrivateChat_RequesterWentOffline(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.reg.Unregister("conn-1")

	err := f.invites.AcceptPrivateChat(f.bob, "conn-1")
	req.ErrorIs(err, errors.ErrTargetOffline)
	req.Empty(f.dir.ListFor("bob"))
}
