// Package transport is the WebSocket event channel: connection
// registry, group broadcast and the JSON envelope codec. It knows the
// wire, not the domain rules.
package transport

import (
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/observability"
)

var _ contract.Transport = (*Hub)(nil)

// Hub tracks live clients and their group subscriptions. Group state
// here is per-connection and transient; room membership lives in the
// room directory.
type Hub struct {
	mu      sync.RWMutex
	log     *slog.Logger
	monitor *observability.Monitor

	clients map[string]*Client
	groups  map[string]map[string]struct{} // group -> connection ids
}

func NewHub(log *slog.Logger, monitor *observability.Monitor) *Hub {
	return &Hub{
		log:     log,
		monitor: monitor,
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]struct{}),
	}
}

// Register adds a live client. Connection ids are generated by the
// server, collisions do not happen.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.monitor.ConnOpened()
	h.log.Info("client registered", "connection_id", c.ID(), "total_clients", total)
}

// Unregister drops the client and every group subscription it held.
// Safe to call twice; the second call is a no-op.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	c, ok := h.clients[connectionID]
	if ok {
		delete(h.clients, connectionID)
		for group, members := range h.groups {
			delete(members, connectionID)
			if len(members) == 0 {
				delete(h.groups, group)
			}
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.Close()
	h.monitor.ConnClosed()
	h.log.Info("client unregistered", "connection_id", connectionID, "total_clients", total)
}

func (h *Hub) Emit(connectionID string, e event.Event) {
	frame, err := encodeEvent(e)
	if err != nil {
		h.log.Error("event encode failed", "event", e.Name(), "err", err)
		return
	}

	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		// The target may have disconnected between lookup and emit,
		// deliberately not an error.
		h.log.Debug("emit to unknown connection", "connection_id", connectionID, "event", e.Name())
		return
	}
	c.Send(frame)
}

func (h *Hub) BroadcastAll(e event.Event) {
	frame, err := encodeEvent(e)
	if err != nil {
		h.log.Error("event encode failed", "event", e.Name(), "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(frame)
	}
}

func (h *Hub) BroadcastRoom(room string, e event.Event) {
	frame, err := encodeEvent(e)
	if err != nil {
		h.log.Error("event encode failed", "event", e.Name(), "err", err)
		return
	}

	h.mu.RLock()
	var targets []*Client
	for id := range h.groups[room] {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(frame)
	}
}

func (h *Hub) BroadcastRoomExcept(room, exceptConnectionID string, e event.Event) {
	frame, err := encodeEvent(e)
	if err != nil {
		h.log.Error("event encode failed", "event", e.Name(), "err", err)
		return
	}

	h.mu.RLock()
	var targets []*Client
	for id := range h.groups[room] {
		if id == exceptConnectionID {
			continue
		}
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(frame)
	}
}

func (h *Hub) JoinRoom(connectionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connectionID]; !ok {
		return
	}
	if _, ok := h.groups[room]; !ok {
		h.groups[room] = make(map[string]struct{})
	}
	h.groups[room][connectionID] = struct{}{}
}

func (h *Hub) LeaveRoom(connectionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[room]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.groups, room)
		}
	}
}

// DropRoom removes a group and every subscription to it. Clients are
// untouched; only their membership in this group ends.
func (h *Hub) DropRoom(room string) {
	h.mu.Lock()
	delete(h.groups, room)
	h.mu.Unlock()
}

// Disconnect force-closes a connection. The read pump notices the
// closed socket and runs the normal disconnect lifecycle.
func (h *Hub) Disconnect(connectionID string) {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if ok {
		c.Close()
	}
}

// Subscribers returns the connection ids currently in a group, used by
// tests and the stats endpoint.
func (h *Hub) Subscribers(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups[room]))
	for id := range h.groups[room] {
		out = append(out, id)
	}
	return out
}
