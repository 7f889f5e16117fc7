package handlers

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the health probes and the /api routes on r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scan", h.ScanFolder).Methods("POST")
	api.HandleFunc("/scan", h.CancelScan).Methods("DELETE")
	api.HandleFunc("/scan", h.GetScanStatus).Methods("GET")
	api.HandleFunc("/scan/progress", h.ScanFolderWithProgress).Methods("POST")
	api.HandleFunc("/events", h.StreamEvents).Methods("GET")

	api.HandleFunc("/photos", h.ListPhotos).Methods("GET")
	api.HandleFunc("/photos/filter", h.FilterPhotos).Methods("POST")
	api.HandleFunc("/photos/stats", h.PhotoStats).Methods("POST")
	api.HandleFunc("/photos/{id}", h.GetPhoto).Methods("GET")
	api.HandleFunc("/photos/{id}/image", h.GetPhotoImage).Methods("GET", "HEAD")
	api.HandleFunc("/image", h.GetImage).Methods("GET", "HEAD")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
}
