// Package presence is the single source of truth for who is online.
// It owns Session values exclusively; every other component refers to
// sessions by connection id or username only.
package presence

import (
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/samber/lo"
)

type Registry struct {
	mu        sync.Mutex
	log       *slog.Logger
	transport contract.Transport

	sessions map[string]domain.Session // connection id -> session
	byUser   map[string]string         // username -> connection id
	order    []string                  // connection ids, insertion order
}

func NewRegistry(log *slog.Logger, transport contract.Transport) *Registry {
	return &Registry{
		log:       log,
		transport: transport,
		sessions:  make(map[string]domain.Session),
		byUser:    make(map[string]string),
	}
}

// Register records a session for the connection and broadcasts the
// full presence snapshot to everyone. The caller (the coordinator)
// must have evicted any prior connection for the same username first;
// FindByUsername exposes the candidate. Re-registering the same
// connection under a new identity replaces the old entry in place.
func (r *Registry) Register(connectionID, username string, role domain.Role) {
	r.mu.Lock()
	if prev, ok := r.sessions[connectionID]; ok {
		delete(r.byUser, prev.Username)
	} else {
		r.order = append(r.order, connectionID)
	}
	s := domain.Session{ConnectionID: connectionID, Username: username, Role: role}
	r.sessions[connectionID] = s
	r.byUser[username] = connectionID
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("session registered", "connection_id", connectionID, "username", username, "role", string(role))
	r.transport.BroadcastAll(snapshot)
}

// Unregister drops the session and broadcasts the updated snapshot.
// Unknown connection ids are a no-op, so the disconnect path can run
// unconditionally.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	s, ok := r.sessions[connectionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, connectionID)
	if r.byUser[s.Username] == connectionID {
		delete(r.byUser, s.Username)
	}
	r.order = lo.Without(r.order, connectionID)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("session unregistered", "connection_id", connectionID, "username", s.Username)
	r.transport.BroadcastAll(snapshot)
}

// Find returns the session for a connection id.
func (r *Registry) Find(connectionID string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connectionID]
	return s, ok
}

// FindByUsername returns the active session for a username, if any.
func (r *Registry) FindByUsername(username string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUser[username]
	if !ok {
		return domain.Session{}, false
	}
	return r.sessions[id], true
}

// ListOnline returns the sessions in insertion order.
func (r *Registry) ListOnline() []domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.order, func(id string, _ int) domain.Session {
		return r.sessions[id]
	})
}

// snapshotLocked builds the full broadcast payload. Callers hold mu:
// the snapshot and the mutation that produced it must be one atomic
// observation.
func (r *Registry) snapshotLocked() event.OnlineUsers {
	return lo.Map(r.order, func(id string, _ int) event.OnlineUser {
		s := r.sessions[id]
		return event.OnlineUser{
			ConnectionID: s.ConnectionID,
			Username:     s.Username,
			Role:         string(s.Role),
		}
	})
}
