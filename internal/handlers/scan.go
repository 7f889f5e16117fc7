package handlers

import (
	"errors"
	"net/http"
	"strings"

	"hologram/internal/indexer"
	"hologram/internal/library"
	"hologram/internal/logging"
)

// ScanRequest is the body of both scan endpoints.
type ScanRequest struct {
	FolderPath string `json:"folder_path"`
	// ScanID tags progress events; generated when empty.
	ScanID string `json:"scan_id,omitempty"`
}

// ScanStatusResponse describes the engine's current scan state.
type ScanStatusResponse struct {
	Scanning bool                 `json:"scanning"`
	Progress library.ScanProgress `json:"progress"`
	Photos   int                  `json:"photos"`
}

// ScanFolder indexes folder_path and returns every indexed photo.
func (h *Handlers) ScanFolder(w http.ResponseWriter, r *http.Request) {
	h.scan(w, r, false)
}

// ScanFolderWithProgress is ScanFolder with progress published on
// /api/events while the scan runs.
func (h *Handlers) ScanFolderWithProgress(w http.ResponseWriter, r *http.Request) {
	h.scan(w, r, true)
}

func (h *Handlers) scan(w http.ResponseWriter, r *http.Request, withProgress bool) {
	var req ScanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.FolderPath) == "" {
		writeJSONError(w, "folder_path is required", http.StatusBadRequest)
		return
	}

	root, err := h.resolvePath(req.FolderPath)
	if err != nil {
		logging.Warn("Rejected scan of %s: %v", req.FolderPath, err)
		writeJSONError(w, err.Error(), http.StatusForbidden)
		return
	}

	// The request context bounds the scan: a client that disconnects
	// cancels it.
	ctx := r.Context()
	if req.ScanID != "" {
		ctx = indexer.WithScanID(ctx, req.ScanID)
	}

	var result *indexer.ScanResult
	if withProgress {
		result, err = h.engine.ScanFolderWithProgress(ctx, root)
	} else {
		result, err = h.engine.ScanFolder(ctx, root)
	}
	if err != nil {
		writeJSONError(w, err.Error(), scanErrorStatus(err))
		return
	}

	w.Header().Set("X-Scan-Id", result.ScanID)
	w.Header().Set("X-Scan-Outcome", string(result.Outcome))

	photos := result.Photos
	if photos == nil {
		photos = []library.Photo{}
	}
	writeJSONResponse(w, photos, http.StatusOK)
}

func scanErrorStatus(err error) int {
	switch {
	case errors.Is(err, indexer.ErrRootNotFound):
		return http.StatusNotFound
	case errors.Is(err, indexer.ErrRootNotDirectory):
		return http.StatusBadRequest
	case errors.Is(err, indexer.ErrScanInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CancelScan stops the active scan. The previous index is kept.
func (h *Handlers) CancelScan(w http.ResponseWriter, _ *http.Request) {
	if !h.engine.Cancel() {
		writeJSONError(w, "no scan in progress", http.StatusConflict)
		return
	}
	writeJSONStatus(w, "cancelling", http.StatusAccepted)
}

// GetScanStatus reports whether a scan is running and its latest progress.
func (h *Handlers) GetScanStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, ScanStatusResponse{
		Scanning: h.engine.IsScanning(),
		Progress: h.engine.Progress(),
		Photos:   h.engine.Index().Len(),
	}, http.StatusOK)
}
