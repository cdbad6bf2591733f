//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/google/uuid"
)

// Transport is the bidirectional event channel the coordinator talks
// through. Group membership here is per-connection subscription state,
// distinct from room membership in the directory.
type Transport interface {
	// Emit sends an event to one connection. Unknown connection ids
	// are a silent no-op; the target may have vanished concurrently.
	Emit(connectionID string, e event.Event)
	// BroadcastAll sends an event to every live connection.
	BroadcastAll(e event.Event)
	// BroadcastRoom sends an event to every connection subscribed to
	// the named group.
	BroadcastRoom(room string, e event.Event)
	// BroadcastRoomExcept is BroadcastRoom minus one connection, for
	// notices the originator should not get echoed back.
	BroadcastRoomExcept(room, exceptConnectionID string, e event.Event)
	JoinRoom(connectionID, room string)
	LeaveRoom(connectionID, room string)
	// DropRoom tears down a whole group. A recreated room with the
	// same name must start without the old subscribers.
	DropRoom(room string)
	// Disconnect force-closes a connection. The transport fires the
	// normal disconnect lifecycle for it afterwards.
	Disconnect(connectionID string)
}

// CommandHandler consumes decoded inbound commands. Implemented by
// the runtime coordinator; the transport only knows this surface.
type CommandHandler interface {
	Handle(ctx context.Context, cmd domain.Command)
}

// MessageStore is the only component holding durable state. A
// successful Create is visible to any subsequent read.
type MessageStore interface {
	Create(ctx context.Context, m domain.Message) (domain.Message, error)
	FindByRoom(ctx context.Context, room string) ([]domain.Message, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Message, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByRoom(ctx context.Context, room string) (int, error)
}

// SearchIndex is the optional full-text index over text messages.
// Indexing is best effort and never fails a send.
type SearchIndex interface {
	Index(m domain.Message) error
	Remove(id uuid.UUID) error
	Search(ctx context.Context, room, terms string, limit int) ([]uuid.UUID, error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
