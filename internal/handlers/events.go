package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hologram/internal/events"
	"hologram/internal/logging"
	"hologram/internal/streaming"
)

const (
	sseProgressEvent = "scan-progress"
	sseCompleteEvent = "scan-complete"
)

// StreamEvents serves scan events as Server-Sent Events. With ?scan_id=
// only that scan's events are sent and the stream ends after its
// completion event; otherwise the stream stays open until the client
// disconnects.
func (h *Handlers) StreamEvents(w http.ResponseWriter, r *http.Request) {
	if h.broker == nil {
		writeJSONError(w, "event streaming is not available", http.StatusServiceUnavailable)
		return
	}
	if _, ok := w.(http.Flusher); !ok {
		writeJSONError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	scanID := r.URL.Query().Get("scan_id")
	sub := h.broker.Subscribe()
	defer sub.Close()

	stream := streaming.NewEventStream(r.Context(), w, h.stream)
	defer stream.Close()

	// Tells the client the subscription is live.
	if err := stream.Comment("subscribed"); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if err := stream.Comment("ping"); err != nil {
				logStreamEnd(err)
				return
			}
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if scanID != "" && e.ScanID != scanID {
				continue
			}
			if err := writeEvent(stream, e); err != nil {
				logStreamEnd(err)
				return
			}
			if scanID != "" && e.IsComplete() {
				return
			}
		}
	}
}

func writeEvent(stream *streaming.EventStream, e events.Event) error {
	name := sseProgressEvent
	if e.IsComplete() {
		name = sseCompleteEvent
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return stream.Event(name, e.ScanID, data)
}

func logStreamEnd(err error) {
	if errors.Is(err, streaming.ErrClientGone) {
		return
	}
	logging.Debug("Event stream ended: %v", err)
}
