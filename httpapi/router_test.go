package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/mocks"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/transport"
)

func newTestAPI(t *testing.T) (*API, *repositories.MessageRepository, *repositories.SearchRepository) {
	t.Helper()
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	store := repositories.NewMessageRepository(db, log, nil)
	search := repositories.NewSearchRepository(writer, log)

	ctrl := gomock.NewController(t)
	handler := mocks.NewMockCommandHandler(ctrl)
	handler.EXPECT().Handle(gomock.Any(), gomock.Any()).AnyTimes()

	monitor := observability.NewMonitor()
	hub := transport.NewHub(log, monitor)
	ws := transport.NewServer(log, hub, handler, nil)

	return NewAPI(log, ws, store, search, monitor), store, search
}

func TestAPI_Health(t *testing.T) {
	req := require.New(t)
	api, _, _ := newTestAPI(t)

	ts := httptest.NewServer(api.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
}

func TestAPI_RoomHistory(t *testing.T) {
	req := require.New(t)
	api, store, _ := newTestAPI(t)
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		_, err := store.Create(ctx, domain.Message{
			Sender: "alice", Room: "study", Kind: domain.KindText, Body: body,
		})
		req.NoError(err)
	}

	ts := httptest.NewServer(api.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/chat/study")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var payloads []event.MessagePayload
	req.NoError(json.NewDecoder(resp.Body).Decode(&payloads))
	req.Len(payloads, 2)
	req.Equal("first", payloads[0].Message)
	req.Equal("alice", payloads[0].Sender)
}

func TestAPI_Search(t *testing.T) {
	req := require.New(t)
	api, store, search := newTestAPI(t)
	ctx := context.Background()

	stored, err := store.Create(ctx, domain.Message{
		Sender: "alice", Room: "study", Kind: domain.KindText, Body: "the exam is tomorrow",
	})
	req.NoError(err)
	req.NoError(search.Index(stored))

	ts := httptest.NewServer(api.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/search?q=exam&room=study")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var payloads []event.MessagePayload
	req.NoError(json.NewDecoder(resp.Body).Decode(&payloads))
	req.Len(payloads, 1)
	req.Equal(stored.ID.String(), payloads[0].ID)

	// Missing query parameter is a client error
	resp, err = http.Get(ts.URL + "/api/search")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	// So is a missing room: the index clause would match nothing and
	// masquerade as an empty result
	resp, err = http.Get(ts.URL + "/api/search?q=exam")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Stats(t *testing.T) {
	req := require.New(t)
	api, _, _ := newTestAPI(t)

	ts := httptest.NewServer(api.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stats")
	req.NoError(err)
	defer resp.Body.Close()

	var stats observability.Stats
	req.NoError(json.NewDecoder(resp.Body).Decode(&stats))
	req.Zero(stats.MessagesRouted)
}
