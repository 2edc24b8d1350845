package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/duotrip/duotrip/internal/middleware"
	"github.com/duotrip/duotrip/internal/realtime"
)

// heartbeatInterval keeps intermediaries from closing an idle SSE stream.
const heartbeatInterval = 25 * time.Second

// handleEvents streams the trip's expense change events as server-sent
// events. The stream stays open until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripID")

	if _, _, err := s.trips.GetTrip(r.Context(), tripID, userID); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := s.hub.Subscribe(tripID)
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeSSE(w, event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSE encodes one event in the text/event-stream framing, with the
// change kind as the event name and the expense as the JSON data payload.
func writeSSE(w http.ResponseWriter, event realtime.Event) error {
	data, err := json.Marshal(toExpenseResponse(&event.Expense))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, data)
	return err
}
