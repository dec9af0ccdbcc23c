package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const version = "1.0.0"

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "durak",
		"description": "Şanlıurfa bus stops, route planning and arrival estimates",
		"version":     version,
		"endpoints": map[string]string{
			"GET /api":                       "API information",
			"GET /health":                    "Health check",
			"GET /metrics":                   "Prometheus metrics",
			"GET /transit/regions":           "Regions for filtering",
			"GET /transit/lines":             "All lines with their stops",
			"GET /transit/stops":             "Search stops (?q=&region=)",
			"GET /transit/stops/nearest":     "Nearest stop (?lat=&lng=&limit=)",
			"GET /transit/stops/{stopId}":    "Stop with estimated arrivals",
			"GET /transit/favorites":         "Favorite stops with arrivals (?stops=a,b)",
			"GET /transit/routes":            "Direct and one-transfer routes (?from=&to=)",
			"GET /transit/feed/trip-updates": "GTFS-Realtime TripUpdates (?format=json)",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Route not found",
		"message": "Check /api for available routes",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}
