package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"jungle/core/events"
	"jungle/storage/eventlog"
)

const wsWriteTimeout = 10 * time.Second

func (h *handlers) mountEvents(r chi.Router) {
	r.Get("/v1/events", h.listEvents)
	r.Get("/v1/events/stream", h.streamEvents)
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSONError(w, http.StatusNotFound, fmt.Errorf("event log disabled"))
		return
	}
	q := r.URL.Query()
	filter := eventlog.Filter{Type: q.Get("type")}
	if raw := q.Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeBadRequest(w, fmt.Errorf("after: %w", err))
			return
		}
		filter.After = after
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, fmt.Errorf("limit: %w", err))
			return
		}
		filter.Limit = limit
	}
	records, err := h.events.Recent(r.Context(), filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": records})
}

// streamEvents pushes committed events over a websocket. The optional cursor
// replays retained updates with a higher sequence first.
func (h *handlers) streamEvents(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		writeJSONError(w, http.StatusNotFound, fmt.Errorf("event stream disabled"))
		return
	}
	eventType := strings.TrimSpace(r.URL.Query().Get("type"))
	var cursor uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeBadRequest(w, fmt.Errorf("cursor: %w", err))
			return
		}
		cursor = parsed
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	ctx := conn.CloseRead(r.Context())
	if err := h.pumpEvents(ctx, conn, cursor, eventType); err != nil {
		if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
			h.logger.Warn("event stream aborted", "error", err)
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (h *handlers) pumpEvents(ctx context.Context, conn *websocket.Conn, cursor uint64, eventType string) error {
	updates, cancel, backlog := h.stream.Subscribe(ctx, cursor)
	defer cancel()

	for _, update := range backlog {
		if err := writeUpdate(ctx, conn, update, eventType); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeUpdate(ctx, conn, update, eventType); err != nil {
				return err
			}
		}
	}
}

func writeUpdate(ctx context.Context, conn *websocket.Conn, update events.Update, eventType string) error {
	if eventType != "" && (update.Event == nil || update.Event.Type != eventType) {
		return nil
	}
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
