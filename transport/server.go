package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"

	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
)

// Server upgrades HTTP requests to WebSocket connections and feeds
// decoded commands into the handler.
type Server struct {
	log      *slog.Logger
	hub      *Hub
	handler  contract.CommandHandler
	verifier *auth.Verifier

	upgrader websocket.Upgrader
}

// NewServer builds the WebSocket endpoint. A nil verifier disables the
// handshake token check.
func NewServer(log *slog.Logger, hub *Hub, handler contract.CommandHandler, verifier *auth.Verifier) *Server {
	return &Server{
		log:      log,
		hub:      hub,
		handler:  handler,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS is the GET /ws handler.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	if s.verifier != nil {
		token := r.URL.Query().Get("token")
		if _, err := s.verifier.ValidateToken(token); err != nil {
			s.log.Warn("handshake rejected", "remote", r.RemoteAddr, "err", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	id := xid.New().String()
	client := newClient(id, conn, s.log)
	s.hub.Register(client)

	// The request context dies when this handler returns; the pumps
	// outlive it.
	go client.writePump()
	go client.readPump(
		func(frame []byte) { s.dispatch(context.Background(), id, frame) },
		func() { s.closed(id) },
	)
}

// dispatch decodes one inbound frame and hands it to the command
// handler. Malformed frames are logged and dropped, the connection
// stays up.
func (s *Server) dispatch(ctx context.Context, connectionID string, frame []byte) {
	cmd, err := decodeFrame(frame)
	if err != nil {
		s.log.Warn("frame rejected", "connection_id", connectionID, "err", err)
		return
	}
	cmd = stampConnection(cmd, connectionID)
	s.handler.Handle(ctx, cmd)
}

// closed runs the disconnect lifecycle after the read pump exits. The
// socket.io contract treats a dropped socket like an explicit
// disconnect event.
func (s *Server) closed(connectionID string) {
	s.handler.Handle(context.Background(), domain.DisconnectCommand{ConnectionID: connectionID})
	s.hub.Unregister(connectionID)
}
