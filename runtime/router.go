package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/moderation"
	"chat-hub/observability"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Router validates, persists and fans out chat messages.
//
// Persistence happens-before broadcast: no recipient ever sees a
// message the store would not return. The persist+broadcast section is
// serialized under one lock so the per-room log order is exactly the
// delivery order; the store call is the only blocking operation inside
// it, acceptable at chat scale.
type Router struct {
	mu        sync.Mutex
	log       *slog.Logger
	transport contract.Transport
	store     contract.MessageStore
	search    contract.SearchIndex
	guard     *moderation.Guard
	moderator *moderation.Moderator
	monitor   *observability.Monitor
}

func NewRouter(
	log *slog.Logger,
	transport contract.Transport,
	store contract.MessageStore,
	search contract.SearchIndex,
	guard *moderation.Guard,
	moderator *moderation.Moderator,
	monitor *observability.Monitor,
) *Router {
	return &Router{
		log:       log,
		transport: transport,
		store:     store,
		search:    search,
		guard:     guard,
		moderator: moderator,
		monitor:   monitor,
	}
}

// Send runs the full message path for a validated sender session. The
// returned error mirrors what was already reported to the sender; no
// other connection is ever interrupted.
func (r *Router) Send(ctx context.Context, sender domain.Session, m domain.Message) error {
	r.monitor.IncrRouted()

	if r.guard.IsMuted(sender.ConnectionID) {
		r.monitor.IncrRejected()
		r.transport.Emit(sender.ConnectionID, event.Muted{})
		return fmt.Errorf("%w: %s", errors.ErrMuted, sender.ConnectionID)
	}

	if _, ok := domain.ParseKind(string(m.Kind)); !ok {
		r.monitor.IncrRejected()
		r.log.Warn("message with unknown kind dropped", "kind", string(m.Kind), "sender", sender.Username)
		return nil
	}

	// Empty text sends are skipped without surfacing an error, the
	// client already trims before sending.
	if m.EmptyText() {
		return nil
	}

	if m.IsText() && r.moderator != nil {
		censored, found := r.moderator.Censor(m.Body)
		if len(found) > 0 {
			r.monitor.IncrCensored()
			lang := whatlanggo.Detect(m.Body)
			r.log.Warn("message censored",
				"sender", sender.Username,
				"room", m.Room,
				"words", len(found),
				"lang", lang.Lang.Iso6391())
			m.Body = censored
		}
	}

	if m.Room == "" {
		m.Room = domain.GlobalRoom
	}
	m.Status = domain.StatusSent

	r.mu.Lock()
	stored, err := r.store.Create(ctx, m)
	if err != nil {
		r.mu.Unlock()
		r.log.Error("message persist failed", "sender", sender.Username, "room", m.Room, "err", err)
		r.transport.Emit(sender.ConnectionID, event.RoomError("message could not be saved"))
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	r.monitor.IncrPersisted()

	payload := event.FromMessage(stored)
	if stored.IsText() {
		r.transport.BroadcastRoom(stored.Room, event.RoomMessage(payload))
	} else {
		r.transport.BroadcastRoom(stored.Room, event.FileMessage(payload))
	}
	r.mu.Unlock()
	r.monitor.IncrBroadcast()

	// Index failures must not fail the send, the store remains the
	// source of truth.
	if r.search != nil {
		if err := r.search.Index(stored); err != nil {
			r.log.Warn("search index failed", "id", stored.ID, "err", err)
		}
	}
	return nil
}

// MarkSeen flips the message status and tells the room, best effort.
// The marker already knows; only the other subscribers are notified.
func (r *Router) MarkSeen(ctx context.Context, markerConnectionID, messageID string) error {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return fmt.Errorf("%w: %q is not a message id", errors.ErrInvalidCommand, messageID)
	}

	m, err := r.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.UpdateStatus(ctx, id, domain.StatusSeen); err != nil {
		return err
	}
	r.transport.BroadcastRoomExcept(m.Room, markerConnectionID, event.MessageSeen(messageID))
	return nil
}

// Delete removes a message when the requester is its sender or a
// moderator/admin, and announces the removal to the room. An
// unauthorized or unknown id is a silent no-op: no notice, no error.
func (r *Router) Delete(ctx context.Context, requester domain.Session, messageID string) error {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return fmt.Errorf("%w: %q is not a message id", errors.ErrInvalidCommand, messageID)
	}

	m, err := r.store.FindByID(ctx, id)
	if stderrors.Is(err, errors.ErrMessageNotFound) {
		r.log.Debug("delete for unknown message", "id", messageID)
		return nil
	}
	if err != nil {
		return err
	}

	if !r.guard.AuthorizeMessageDelete(requester.Username, requester.Role, m) {
		r.log.Info("unauthorized delete ignored",
			"id", messageID, "requester", requester.Username, "sender", m.Sender)
		return nil
	}

	if err := r.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	if r.search != nil {
		if err := r.search.Remove(id); err != nil {
			r.log.Warn("search remove failed", "id", id, "err", err)
		}
	}
	r.transport.BroadcastRoom(m.Room, event.DeleteMessage(messageID))
	r.log.Info("message deleted", "id", messageID, "requester", requester.Username)
	return nil
}
