package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Compile-time check that the repository satisfies the store contract.
var _ contract.MessageStore = (*MessageRepository)(nil)

const (
	msgPrefix = "msg:"
	idPrefix  = "msgid:"
)

// MessageRepository persists messages in BadgerDB.
// Primary keys are formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order equals time order within a room prefix).
//  2. Prevent data loss by using the UUID as a collision disconnector
//     if two messages land on the same nanosecond.
//
// A secondary entry "msgid:{uuid}" -> primary key serves the by-id
// operations (seen flip, delete).
type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int // nil means unbounded history
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limit *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limit: limit}
}

// storedMessage is the CBOR document written to disk.
type storedMessage struct {
	ID       string `cbor:"id"`
	Sender   string `cbor:"sender"`
	Room     string `cbor:"room"`
	Kind     string `cbor:"kind"`
	Body     string `cbor:"body,omitempty"`
	FileRef  string `cbor:"fileRef,omitempty"`
	FileName string `cbor:"fileName,omitempty"`
	Status   string `cbor:"status"`
	At       int64  `cbor:"at"` // unix nanoseconds, UTC
}

func primaryKey(room string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", msgPrefix, domain.RoomKey(room), at.UnixNano(), id))
}

func indexKey(id uuid.UUID) []byte {
	return []byte(idPrefix + id.String())
}

// Create assigns the id and persistence timestamp, writes the document
// and its id index in one transaction, and returns the stored message.
func (r *MessageRepository) Create(ctx context.Context, m domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	if m.Status == "" {
		m.Status = domain.StatusSent
	}
	m.Room = domain.RoomKey(m.Room)

	key := primaryKey(m.Room, m.CreatedAt, m.ID)
	value, err := cbor.Marshal(fromMessage(m))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: encode: %v", errors.ErrPersistence, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(indexKey(m.ID), key)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return m, nil
}

// FindByRoom returns the room's full history, oldest first. Thanks to
// the padded timestamp in the key a plain forward prefix scan is
// already in chronological order.
func (r *MessageRepository) FindByRoom(ctx context.Context, room string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw [][]byte
	prefix := []byte(msgPrefix + domain.RoomKey(room) + ":")
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				raw = append(raw, append([]byte(nil), v...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		m, err := decodeMessage(b)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if r.limit != nil && len(messages) > *r.limit {
		// Keep the most recent entries, history stays oldest first.
		messages = messages[len(messages)-*r.limit:]
	}
	return messages, nil
}

// FindByID resolves a message through the id index.
func (r *MessageRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	var value []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		primary, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = primary.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return decodeMessage(value)
}

// UpdateStatus rewrites the stored document with the new status. The
// primary key embeds the original timestamp, so the position in the
// room log never moves.
func (r *MessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		primary, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err := primary.ValueCopy(nil)
		if err != nil {
			return err
		}

		var doc storedMessage
		if err := cbor.Unmarshal(value, &doc); err != nil {
			return err
		}
		doc.Status = string(status)
		updated, err := cbor.Marshal(doc)
		if err != nil {
			return err
		}
		return txn.Set(key, updated)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

// DeleteByID removes the document and its index entry.
func (r *MessageRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(indexKey(id))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

// DeleteByRoom removes every message of a room (the room-deletion
// cascade) and returns how many were dropped.
func (r *MessageRepository) DeleteByRoom(ctx context.Context, room string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(msgPrefix + domain.RoomKey(room) + ":")
	var keys [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			// Last key segment is the message uuid.
			parts := strings.Split(string(key), ":")
			if err := txn.Delete([]byte(idPrefix + parts[len(parts)-1])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return len(keys), nil
}

func fromMessage(m domain.Message) storedMessage {
	return storedMessage{
		ID:       m.ID.String(),
		Sender:   m.Sender,
		Room:     m.Room,
		Kind:     string(m.Kind),
		Body:     m.Body,
		FileRef:  m.FileRef,
		FileName: m.FileName,
		Status:   string(m.Status),
		At:       m.CreatedAt.UnixNano(),
	}
}

func toMessage(doc storedMessage) (domain.Message, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: corrupt id %q: %v", errors.ErrPersistence, doc.ID, err)
	}
	return domain.Message{
		ID:        id,
		Sender:    doc.Sender,
		Room:      doc.Room,
		Kind:      domain.Kind(doc.Kind),
		Body:      doc.Body,
		FileRef:   doc.FileRef,
		FileName:  doc.FileName,
		Status:    domain.Status(doc.Status),
		CreatedAt: time.Unix(0, doc.At).UTC(),
	}, nil
}

func decodeMessage(value []byte) (domain.Message, error) {
	var doc storedMessage
	if err := cbor.Unmarshal(value, &doc); err != nil {
		return domain.Message{}, fmt.Errorf("%w: decode: %v", errors.ErrPersistence, err)
	}
	return toMessage(doc)
}

// Rooms lists the distinct room keys present in the store, used by the
// inspection tool.
func (r *MessageRepository) Rooms(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	prefix := []byte(msgPrefix)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			parts := strings.SplitN(string(it.Item().Key()), ":", 3)
			if len(parts) == 3 {
				seen[parts[1]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return lo.Keys(seen), nil
}
