// Package httpapi exposes the HTTP surface: the WebSocket upgrade
// endpoint and a few read-only JSON routes over the message store.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/observability"
	"chat-hub/transport"
)

const defaultSearchLimit = 20

type API struct {
	log     *slog.Logger
	ws      *transport.Server
	store   contract.MessageStore
	search  contract.SearchIndex
	monitor *observability.Monitor
}

func NewAPI(log *slog.Logger, ws *transport.Server, store contract.MessageStore,
	search contract.SearchIndex, monitor *observability.Monitor) *API {
	return &API{log: log, ws: ws, store: store, search: search, monitor: monitor}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", a.ws.ServeWS)
	r.Get("/healthz", a.health)
	r.Get("/api/stats", a.stats)
	r.Get("/api/chat/{room}", a.roomHistory)
	r.Get("/api/search", a.searchMessages)

	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) stats(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.monitor.Snapshot())
}

func (a *API) roomHistory(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")

	messages, err := a.store.FindByRoom(r.Context(), room)
	if err != nil {
		a.log.Error("history lookup failed", "room", room, "err", err)
		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}

	payloads := make([]event.MessagePayload, 0, len(messages))
	for _, m := range messages {
		payloads = append(payloads, event.FromMessage(m))
	}
	a.writeJSON(w, http.StatusOK, payloads)
}

func (a *API) searchMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing q parameter"})
		return
	}
	// Searches are room-scoped; without a room the index clause would
	// match nothing and quietly return an empty result.
	room := r.URL.Query().Get("room")
	if room == "" {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing room parameter"})
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	ids, err := a.search.Search(r.Context(), room, query, limit)
	if err != nil {
		a.log.Error("search failed", "query", query, "err", err)
		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search unavailable"})
		return
	}

	payloads := make([]event.MessagePayload, 0, len(ids))
	for _, id := range ids {
		m, err := a.store.FindByID(r.Context(), id)
		if err != nil {
			// The index can briefly lag deletions, skip the stale hit.
			continue
		}
		payloads = append(payloads, event.FromMessage(m))
	}
	a.writeJSON(w, http.StatusOK, payloads)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.Error("response encoding failed", "err", err)
	}
}

// Serve blocks until the context is canceled or the listener fails.
func (a *API) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: a.Router()}

	errChan := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}
