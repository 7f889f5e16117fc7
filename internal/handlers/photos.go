package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"hologram/internal/library"
	"hologram/internal/query"
)

// FilterRequest filters either the supplied photos or, when Photos is
// absent, the current index.
type FilterRequest struct {
	Photos []library.Photo     `json:"photos"`
	Filter library.PhotoFilter `json:"filter"`
}

// StatsRequest aggregates the supplied photos, or the index when absent.
type StatsRequest struct {
	Photos []library.Photo `json:"photos"`
}

// FilterPhotos returns the photos matching every set criterion.
func (h *Handlers) FilterPhotos(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var matched []library.Photo
	if req.Photos == nil {
		matched = query.FilterIndex(h.engine.Index(), req.Filter)
	} else {
		matched = query.Filter(req.Photos, req.Filter)
	}
	if matched == nil {
		matched = []library.Photo{}
	}
	writeJSONResponse(w, matched, http.StatusOK)
}

// PhotoStats aggregates the posted photo list.
func (h *Handlers) PhotoStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Photos == nil {
		writeJSONResponse(w, query.AggregateIndex(h.engine.Index()), http.StatusOK)
		return
	}
	writeJSONResponse(w, query.Aggregate(req.Photos), http.StatusOK)
}

// GetStats aggregates the current index.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, query.AggregateIndex(h.engine.Index()), http.StatusOK)
}

// ListPhotos returns the indexed photos ordered by path.
// ?thumbnails=false omits the embedded thumbnails.
func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos := h.engine.Index().Snapshot()
	if r.URL.Query().Get("thumbnails") == "false" {
		for i := range photos {
			photos[i].Thumbnail = nil
		}
	}
	writeJSONResponse(w, photos, http.StatusOK)
}

// GetPhoto returns a single photo by id.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	photo, ok := h.engine.Lookup(id)
	if !ok {
		writeJSONError(w, "photo not found", http.StatusNotFound)
		return
	}
	writeJSONResponse(w, photo, http.StatusOK)
}
