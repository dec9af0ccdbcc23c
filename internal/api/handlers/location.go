package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kentrehber/durak/internal/location"
)

const (
	defaultLimit = 3
	maxLimit     = 10
)

type LocationHandler struct {
	transit  TransitProvider
	catalog  CatalogProvider
	center   location.CityCenter
	observer NearestObserver
}

func NewLocationHandler(transit TransitProvider, catalog CatalogProvider, center location.CityCenter, observer NearestObserver) *LocationHandler {
	return &LocationHandler{
		transit:  transit,
		catalog:  catalog,
		center:   center,
		observer: observer,
	}
}

// GetNearestStop resolves the closest stop to lat/lng. When the point is
// far from the city center the client should show the default region
// instead of centering on the user.
func (h *LocationHandler) GetNearestStop(w http.ResponseWriter, r *http.Request) {
	lat, lng, ok := parseCoords(w, r)
	if !ok {
		return
	}

	limit := parseIntParam(r, "limit", defaultLimit, 1, maxLimit)
	nearest, closest, err := h.transit.Nearest(lat, lng, limit)
	if err != nil {
		if errors.Is(err, location.ErrEmptyCatalog) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"error":   "Stop catalog unavailable",
				"message": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to resolve nearest stop",
			"message": err.Error(),
		})
		return
	}

	far := h.center.IsFar(lat, lng)
	if h.observer != nil {
		h.observer.ObserveNearest(far)
	}

	resp := map[string]any{
		"success":                 true,
		"lat":                     lat,
		"lng":                     lng,
		"nearest":                 nearest,
		"stops":                   closest,
		"far_from_center":         far,
		"distance_from_center_km": h.center.DistanceFrom(lat, lng),
	}
	if far {
		resp["default_region"] = h.center.DefaultRegion
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRegions returns all regions
func (h *LocationHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	regions := h.catalog.Regions()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(regions),
		"regions": regions,
	})
}

func parseCoords(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")

	if latStr == "" || lngStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "lat and lng query parameters are required",
		})
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Invalid lat parameter",
		})
		return 0, 0, false
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Invalid lng parameter",
		})
		return 0, 0, false
	}

	if !location.IsValidLatLng(lat, lng) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Coordinates out of range",
			"message": "lat must be within [-90,90] and lng within [-180,180]",
		})
		return 0, 0, false
	}

	return lat, lng, true
}

func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}

	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
