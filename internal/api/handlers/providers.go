package handlers

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/kentrehber/durak/internal/models"
)

// TransitProvider abstracts planning, search and ETAs for testability.
type TransitProvider interface {
	Plan(originID, destID string) ([]models.Route, error)
	Filter(query, region string) []models.Stop
	Nearest(lat, lng float64, limit int) (models.StopWithDistance, []models.StopWithDistance, error)
	StopArrivals(id string) (models.StopArrivals, bool)
	Feed(now time.Time) *gtfs.FeedMessage
}

// CatalogProvider exposes catalog-wide listings.
type CatalogProvider interface {
	Len() int
	Regions() []string
	Lines() []models.LineSummary
}

// NearestObserver records nearest-stop lookups. May be nil.
type NearestObserver interface {
	ObserveNearest(far bool)
}
