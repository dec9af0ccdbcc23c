package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/kentrehber/durak/internal/models"
	"github.com/kentrehber/durak/internal/transit"
)

const maxFavorites = 20

type TransitHandler struct {
	transit TransitProvider
	catalog CatalogProvider
	now     func() time.Time
}

func NewTransitHandler(transit TransitProvider, catalog CatalogProvider) *TransitHandler {
	return &TransitHandler{
		transit: transit,
		catalog: catalog,
		now:     time.Now,
	}
}

// GetStops filters stops by free text and region
func (h *TransitHandler) GetStops(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	region := r.URL.Query().Get("region")

	stops := h.transit.Filter(query, region)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"query":   query,
		"region":  region,
		"stops":   stops,
		"count":   len(stops),
	})
}

// GetStop returns one stop with estimated arrivals for its lines
func (h *TransitHandler) GetStop(w http.ResponseWriter, r *http.Request) {
	stopID := chi.URLParam(r, "stopId")
	if stopID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Stop ID is required",
		})
		return
	}

	board, ok := h.transit.StopArrivals(stopID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "Stop not found",
			"message": "Stop " + stopID + " is not in the catalog",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"stop":     board.Stop,
		"arrivals": board.Arrivals,
	})
}

// GetFavorites returns arrivals for the favorite stop IDs the client holds
func (h *TransitHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	stopsParam := r.URL.Query().Get("stops")
	if stopsParam == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "stops query parameter is required (comma-separated stop IDs)",
		})
		return
	}

	stopIDs := splitIDs(stopsParam)
	if len(stopIDs) > maxFavorites {
		stopIDs = stopIDs[:maxFavorites]
	}

	stations := []models.StopArrivals{}
	missing := []string{}
	for _, id := range stopIDs {
		board, ok := h.transit.StopArrivals(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		stations = append(stations, board)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"stations": stations,
		"missing":  missing,
		"count":    len(stations),
	})
}

// GetLines returns every line with the stops it serves
func (h *TransitHandler) GetLines(w http.ResponseWriter, r *http.Request) {
	lines := h.catalog.Lines()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"lines":   lines,
		"count":   len(lines),
	})
}

// GetRoutes plans direct and one-transfer routes between two stops
func (h *TransitHandler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "from and to query parameters are required",
		})
		return
	}

	routes, err := h.transit.Plan(from, to)
	if err != nil {
		if errors.Is(err, transit.ErrStopNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error":   "Stop not found",
				"message": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to plan routes",
			"message": err.Error(),
		})
		return
	}

	direct, transfer := transit.CountKinds(routes)
	resp := map[string]any{
		"success": true,
		"from":    from,
		"to":      to,
		"routes":  routes,
		"count":   len(routes),
		"metadata": map[string]any{
			"direct":   direct,
			"transfer": transfer,
		},
	}
	switch {
	case from == to:
		resp["message"] = "Origin and destination are the same stop"
	case len(routes) == 0:
		resp["message"] = "No direct or transfer route found"
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetTripUpdatesFeed serves estimated arrivals as GTFS-Realtime
func (h *TransitHandler) GetTripUpdatesFeed(w http.ResponseWriter, r *http.Request) {
	feed := h.transit.Feed(h.now())

	if r.URL.Query().Get("format") == "json" {
		body, err := protojson.Marshal(feed)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "Failed to encode feed",
				"message": err.Error(),
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	body, err := proto.Marshal(feed)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to encode feed",
			"message": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
