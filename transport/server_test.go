package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/mocks"
	"chat-hub/observability"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestServer_DispatchesDecodedCommands(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := slog.Default()
	hub := NewHub(log, observability.NewMonitor())
	handler := mocks.NewMockCommandHandler(ctrl)

	joined := make(chan domain.JoinCommand, 1)
	handler.EXPECT().
		Handle(gomock.Any(), gomock.AssignableToTypeOf(domain.JoinCommand{})).
		Do(func(_ context.Context, cmd domain.Command) {
			joined <- cmd.(domain.JoinCommand)
		})
	handler.EXPECT().
		Handle(gomock.Any(), gomock.AssignableToTypeOf(domain.DisconnectCommand{})).
		AnyTimes()

	srv := NewServer(log, hub, handler, nil)
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeWS))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	req.NoError(err)
	defer conn.Close()

	err = conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"join","data":{"username":"alice","role":"member"}}`))
	req.NoError(err)

	select {
	case cmd := <-joined:
		req.Equal("alice", cmd.Username)
		// The server stamped a generated connection id
		req.NotEmpty(cmd.ConnectionID)
	case <-time.After(2 * time.Second):
		req.Fail("join command never reached the handler")
	}
}

func TestServer_EmitReachesTheClient(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := slog.Default()
	hub := NewHub(log, observability.NewMonitor())
	handler := mocks.NewMockCommandHandler(ctrl)

	connected := make(chan string, 1)
	handler.EXPECT().
		Handle(gomock.Any(), gomock.AssignableToTypeOf(domain.JoinCommand{})).
		Do(func(_ context.Context, cmd domain.Command) {
			connected <- cmd.(domain.JoinCommand).ConnectionID
		})
	handler.EXPECT().
		Handle(gomock.Any(), gomock.AssignableToTypeOf(domain.DisconnectCommand{})).
		AnyTimes()

	srv := NewServer(log, hub, handler, nil)
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeWS))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	req.NoError(err)
	defer conn.Close()

	req.NoError(conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"join","data":{"username":"alice"}}`)))

	var connID string
	select {
	case connID = <-connected:
	case <-time.After(2 * time.Second):
		req.Fail("client never registered")
	}

	hub.Emit(connID, event.RoomCreated{RoomName: "Study"})

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, frame, err := conn.ReadMessage()
	req.NoError(err)
	req.JSONEq(`{"event":"room-created","data":{"roomName":"Study"}}`, string(frame))
}

func TestHub_RoomExclusionAndTeardown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := slog.Default()
	hub := NewHub(log, observability.NewMonitor())
	handler := mocks.NewMockCommandHandler(ctrl)

	connected := make(chan string, 2)
	handler.EXPECT().Handle(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, cmd domain.Command) {
			if j, ok := cmd.(domain.JoinCommand); ok {
				connected <- j.ConnectionID
			}
		}).
		AnyTimes()

	srv := NewServer(log, hub, handler, nil)
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeWS))
	defer ts.Close()

	dial := func(username string) (*websocket.Conn, string) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
		req.NoError(err)
		req.NoError(conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"event":"join","data":{"username":"`+username+`"}}`)))
		select {
		case id := <-connected:
			return conn, id
		case <-time.After(2 * time.Second):
			req.Fail("client never registered")
			return nil, ""
		}
	}

	aliceConn, aliceID := dial("alice")
	defer aliceConn.Close()
	bobConn, bobID := dial("bob")
	defer bobConn.Close()

	hub.JoinRoom(aliceID, "study")
	hub.JoinRoom(bobID, "study")

	hub.BroadcastRoomExcept("study", aliceID, event.MessageSeen("m-1"))

	// Bob receives the notice
	req.NoError(bobConn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, frame, err := bobConn.ReadMessage()
	req.NoError(err)
	req.JSONEq(`{"event":"message-seen","data":"m-1"}`, string(frame))

	// Alice, the excluded connection, gets nothing
	req.NoError(aliceConn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	_, _, err = aliceConn.ReadMessage()
	req.Error(err)

	hub.DropRoom("study")
	req.Empty(hub.Subscribers("study"))
}

func TestServer_DisconnectLifecycleOnClose(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := slog.Default()
	hub := NewHub(log, observability.NewMonitor())
	handler := mocks.NewMockCommandHandler(ctrl)

	disconnected := make(chan string, 1)
	handler.EXPECT().Handle(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, cmd domain.Command) {
			if d, ok := cmd.(domain.DisconnectCommand); ok {
				disconnected <- d.ConnectionID
			}
		}).
		AnyTimes()

	srv := NewServer(log, hub, handler, nil)
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeWS))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	req.NoError(err)
	req.NoError(conn.Close())

	select {
	case id := <-disconnected:
		req.NotEmpty(id)
		// The hub no longer knows the connection
		req.Empty(hub.Subscribers("study"))
	case <-time.After(2 * time.Second):
		req.Fail("disconnect lifecycle never ran")
	}
}

func TestServer_RejectsInvalidHandshakeToken(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := slog.Default()
	hub := NewHub(log, observability.NewMonitor())
	verifier := auth.NewVerifier("test-secret")
	handler := mocks.NewMockCommandHandler(ctrl)
	handler.EXPECT().Handle(gomock.Any(), gomock.Any()).AnyTimes()
	srv := NewServer(log, hub, handler, verifier)

	ts := httptest.NewServer(http.HandlerFunc(srv.ServeWS))
	defer ts.Close()

	// No token at all
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// A valid token passes
	token, err := verifier.GenerateToken("alice", "member", time.Minute)
	req.NoError(err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts)+"?token="+token, nil)
	req.NoError(err)
	_ = conn.Close()
}
