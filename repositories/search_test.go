package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-hub/domain"
)

func newTestSearch(t *testing.T) *SearchRepository {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewSearchRepository(writer, slog.Default())
}

func indexedMessage(sender, room, body string) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Room:      room,
		Kind:      domain.KindText,
		Body:      body,
		Status:    domain.StatusSent,
		CreatedAt: time.Now().UTC(),
	}
}

func TestSearchRepository_FindsByBodyWithinRoom(t *testing.T) {
	req := require.New(t)
	search := newTestSearch(t)
	ctx := context.Background()

	hit := indexedMessage("alice", "study", "the exam is on tuesday")
	req.NoError(search.Index(hit))
	req.NoError(search.Index(indexedMessage("bob", "study", "lunch anyone")))
	// Same words, different room: must not surface
	req.NoError(search.Index(indexedMessage("carol", "games", "the exam is on tuesday")))

	ids, err := search.Search(ctx, "study", "exam tuesday", 10)
	req.NoError(err)
	req.Equal([]uuid.UUID{hit.ID}, ids)

	ids, err = search.Search(ctx, "study", "nonexistent", 10)
	req.NoError(err)
	req.Empty(ids)
}

func TestSearchRepository_SkipsNonTextMessages(t *testing.T) {
	req := require.New(t)
	search := newTestSearch(t)

	file := domain.Message{
		ID:       uuid.New(),
		Sender:   "alice",
		Room:     "study",
		Kind:     domain.KindFile,
		FileRef:  "https://files.example/notes.pdf",
		FileName: "notes.pdf",
	}
	req.NoError(search.Index(file))

	ids, err := search.Search(context.Background(), "study", "notes", 10)
	req.NoError(err)
	req.Empty(ids)
}

func TestSearchRepository_RemoveDropsDocument(t *testing.T) {
	req := require.New(t)
	search := newTestSearch(t)
	ctx := context.Background()

	m := indexedMessage("alice", "study", "delete me please")
	req.NoError(search.Index(m))

	ids, err := search.Search(ctx, "study", "delete", 10)
	req.NoError(err)
	req.Len(ids, 1)

	req.NoError(search.Remove(m.ID))

	ids, err = search.Search(ctx, "study", "delete", 10)
	req.NoError(err)
	req.Empty(ids)
}
