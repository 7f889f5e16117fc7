package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"hologram/internal/logging"
	"hologram/internal/media"
	"hologram/internal/streaming"
)

// GetImage serves the full-resolution image at ?path=.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	abs, err := h.resolvePath(path)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusForbidden)
		return
	}
	h.serveImage(w, r, abs)
}

// GetPhotoImage serves the full-resolution image of an indexed photo.
func (h *Handlers) GetPhotoImage(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.engine.Lookup(mux.Vars(r)["id"])
	if !ok {
		writeJSONError(w, "photo not found", http.StatusNotFound)
		return
	}
	h.serveImage(w, r, photo.FilePath)
}

func (h *Handlers) serveImage(w http.ResponseWriter, r *http.Request, path string) {
	img, err := h.loader.Load(path)
	if err != nil {
		status := imageErrorStatus(err)
		if status >= http.StatusInternalServerError {
			logging.Error("Failed to load image %s: %v", path, err)
		} else {
			logging.Debug("Image %s not served: %v", path, err)
		}
		writeJSONError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if img.Width > 0 && img.Height > 0 {
		w.Header().Set("X-Image-Width", strconv.Itoa(img.Width))
		w.Header().Set("X-Image-Height", strconv.Itoa(img.Height))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if err := streaming.Send(r.Context(), w, img.Data, h.stream); err != nil {
		logging.Debug("Failed to send image %s: %v", path, err)
	}
}

func imageErrorStatus(err error) int {
	switch {
	case errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, media.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, media.ErrUndecodable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
