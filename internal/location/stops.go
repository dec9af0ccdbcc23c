// Package location handles geographic lookups over the stop catalog
package location

import (
	"errors"
	"sort"

	"github.com/kentrehber/durak/internal/models"
)

// ErrEmptyCatalog is returned when a lookup runs against zero stops.
var ErrEmptyCatalog = errors.New("catalog has no stops")

// NearestStop returns the stop closest to a point. Ties go to the stop
// that appears first in the slice.
func NearestStop(stops []models.Stop, lat, lng float64) (models.StopWithDistance, error) {
	if len(stops) == 0 {
		return models.StopWithDistance{}, ErrEmptyCatalog
	}

	best := 0
	bestDist := DistanceKm(lat, lng, stops[0].Lat, stops[0].Lng)
	for i := 1; i < len(stops); i++ {
		dist := DistanceKm(lat, lng, stops[i].Lat, stops[i].Lng)
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}

	return models.StopWithDistance{Stop: stops[best], DistanceKm: bestDist}, nil
}

// FindClosest returns the N closest stops to a point
func FindClosest(stops []models.Stop, lat, lng float64, limit int) []models.StopWithDistance {
	results := make([]models.StopWithDistance, 0, len(stops))
	for _, stop := range stops {
		results = append(results, models.StopWithDistance{
			Stop:       stop,
			DistanceKm: DistanceKm(lat, lng, stop.Lat, stop.Lng),
		})
	}

	// Stable so equal distances keep catalog order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	return results
}

// FindNearby returns stops within radiusKm of a point, closest first
func FindNearby(stops []models.Stop, lat, lng, radiusKm float64) []models.StopWithDistance {
	var results []models.StopWithDistance
	for _, s := range FindClosest(stops, lat, lng, 0) {
		if s.DistanceKm > radiusKm {
			break
		}
		results = append(results, s)
	}
	return results
}
