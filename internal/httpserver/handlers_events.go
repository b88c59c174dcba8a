package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Stats reports gateway-level counters: the upstream circuit breaker and,
// when streaming is enabled, event hub totals.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"breaker": h.client.BreakerStats(),
	}
	if h.hub != nil {
		published, dropped := h.hub.Stats()
		body["events"] = map[string]interface{}{
			"subscribers": h.hub.SubscriberCount(),
			"published":   published,
			"dropped":     dropped,
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// Events streams alert lifecycle events over Server-Sent Events. The
// connection stays open until the client disconnects or the server shuts
// down. Clients that fall behind miss events rather than blocking ingestion.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusNotFound, "event streaming is not enabled")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, unsubscribe := h.hub.Subscribe(uuid.NewString())
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn().Err(err).Msg("encoding stream event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
