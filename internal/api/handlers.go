package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-insights/internal/storage"
)

// Handlers holds the API handlers.
type Handlers struct {
	cache *storage.ResultCache
}

// NewHandlers creates API handlers backed by the result cache.
func NewHandlers(cache *storage.ResultCache) *Handlers {
	return &Handlers{cache: cache}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetSummary returns the latest run's metadata and summary text.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	meta, err := h.cache.Meta(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNoRun) {
			writeError(w, http.StatusServiceUnavailable, "no analytics run published yet")
			return
		}
		log.Printf("[API] Summary lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "summary lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// GetTable streams a published derived table as JSON.
func (h *Handlers) GetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := h.cache.Table(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTableNotFound):
			writeError(w, http.StatusNotFound, "unknown table: "+name)
		case errors.Is(err, storage.ErrNoRun):
			writeError(w, http.StatusServiceUnavailable, "no analytics run published yet")
		default:
			log.Printf("[API] Table %s lookup failed: %v", name, err)
			writeError(w, http.StatusInternalServerError, "table lookup failed")
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
