package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"hologram/internal/logging"
)

// Filter and stats requests may carry a full photo list, thumbnails
// included, so the bound is generous.
const maxRequestBody = 256 << 20

var errOutsideRoots = errors.New("path is outside the configured library roots")

// writeJSON encodes v onto an already started response. The status line
// has gone out, so a failure can only be logged.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encode response: %v", err)
	}
}

func writeJSONResponse(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, v)
}

// writeJSONError writes the {"error": "..."} body every failing endpoint
// returns.
func writeJSONError(w http.ResponseWriter, message string, code int) {
	writeJSONResponse(w, map[string]string{"error": message}, code)
}

func writeJSONStatus(w http.ResponseWriter, status string, code int) {
	writeJSONResponse(w, map[string]string{"status": status}, code)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// resolvePath makes a client-supplied path absolute and rejects it with
// errOutsideRoots unless it lies under a configured library root.
func (h *Handlers) resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !h.roots.Contains(abs) {
		return "", errOutsideRoots
	}
	return abs, nil
}
