// Package handlers contains HTTP request handlers
package handlers

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	startTime time.Time
	catalog   CatalogProvider
}

func NewHealthHandler(catalog CatalogProvider) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), catalog: catalog}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "OK", http.StatusOK
	if h.catalog.Len() == 0 {
		status, code = "DEGRADED", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":        status,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"version":       version,
		"uptime":        time.Since(h.startTime).String(),
		"catalog_stops": h.catalog.Len(),
	})
}
