package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"chat-hub/contract"
	"chat-hub/domain"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

var _ contract.SearchIndex = (*SearchRepository)(nil)

// SearchRepository maintains a Bluge full-text index over text
// messages. The index is a derived view: the Badger store stays the
// source of truth and index failures never fail a send.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, log: log}
}

// Index adds or replaces the document for a message. Only text
// messages carry searchable content; everything else is skipped.
func (s *SearchRepository) Index(m domain.Message) error {
	if !m.IsText() {
		return nil
	}
	doc := bluge.NewDocument(m.ID.String()).
		AddField(bluge.NewTextField("body", m.Body)).
		AddField(bluge.NewKeywordField("room", domain.RoomKey(m.Room))).
		AddField(bluge.NewKeywordField("sender", m.Sender)).
		AddField(bluge.NewDateTimeField("at", m.CreatedAt))
	return s.writer.Update(doc.ID(), doc)
}

// Remove drops a message from the index.
func (s *SearchRepository) Remove(id uuid.UUID) error {
	doc := bluge.NewDocument(id.String())
	return s.writer.Delete(doc.ID())
}

// Search returns the ids of the best-matching messages in a room.
func (s *SearchRepository) Search(ctx context.Context, room, terms string, limit int) ([]uuid.UUID, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("search reader: %w", err)
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("body")).
		AddMust(bluge.NewTermQuery(domain.RoomKey(room)).SetField("room"))

	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var ids []uuid.UUID
	for {
		match, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("search iterate: %w", err)
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != "_id" {
				return true
			}
			if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
				ids = append(ids, id)
			} else {
				s.log.Warn("index entry with unparsable id", "raw", string(value))
			}
			return false
		})
		if err != nil {
			return nil, fmt.Errorf("search visit: %w", err)
		}
	}
	return ids, nil
}
