package transit

import (
	"errors"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/kentrehber/durak/internal/cache"
	"github.com/kentrehber/durak/internal/catalog"
	"github.com/kentrehber/durak/internal/location"
	"github.com/kentrehber/durak/internal/metrics"
	"github.com/kentrehber/durak/internal/models"
)

// Service answers planning, search and ETA questions over one catalog.
// Only the plan cache and the estimator's random source carry state.
type Service struct {
	catalog *catalog.Catalog
	est     *Estimator
	plans   *cache.Cache[[]models.Route]
	metrics *metrics.Collector
}

// NewService wires a catalog to an estimator. m may be nil.
func NewService(cat *catalog.Catalog, est *Estimator, planTTL time.Duration, m *metrics.Collector) *Service {
	s := &Service{
		catalog: cat,
		est:     est,
		plans:   cache.New[[]models.Route](planTTL),
		metrics: m,
	}
	if m != nil {
		m.CatalogStops.Set(float64(cat.Len()))
		m.CatalogLines.Set(float64(len(cat.Lines())))
	}
	return s
}

// Close stops the plan cache janitor
func (s *Service) Close() {
	s.plans.Close()
}

// Catalog returns the underlying catalog
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Plan returns the routes between two stops, served from cache when possible
func (s *Service) Plan(originID, destID string) ([]models.Route, error) {
	start := time.Now()
	routes, hit, err := s.plans.GetOrLoad(originID+"\x00"+destID, func() ([]models.Route, error) {
		return PlanRoutes(s.catalog, originID, destID)
	})

	if s.metrics != nil {
		s.metrics.ObserveCache(hit)
		s.metrics.ObservePlan(planResult(routes, err), time.Since(start))
	}
	return routes, err
}

func planResult(routes []models.Route, err error) string {
	if errors.Is(err, ErrStopNotFound) {
		return "not_found"
	}
	direct, transfer := CountKinds(routes)
	switch {
	case direct > 0:
		return "direct"
	case transfer > 0:
		return "transfer"
	default:
		return "none"
	}
}

// Filter runs FilterStops against the catalog
func (s *Service) Filter(query, region string) []models.Stop {
	if s.metrics != nil {
		s.metrics.SearchQueries.Inc()
	}
	return FilterStops(s.catalog, query, region)
}

// Nearest resolves the closest stop and up to limit runners-up
func (s *Service) Nearest(lat, lng float64, limit int) (models.StopWithDistance, []models.StopWithDistance, error) {
	stops := s.catalog.Stops()
	nearest, err := location.NearestStop(stops, lat, lng)
	if err != nil {
		return models.StopWithDistance{}, nil, err
	}
	return nearest, location.FindClosest(stops, lat, lng, limit), nil
}

// StopArrivals returns a stop with an estimate for each of its lines
func (s *Service) StopArrivals(id string) (models.StopArrivals, bool) {
	stop, ok := s.catalog.Stop(id)
	if !ok {
		return models.StopArrivals{}, false
	}
	arrivals := s.est.Arrivals(stop)
	if s.metrics != nil {
		s.metrics.ETAEstimates.Add(float64(len(arrivals)))
	}
	return models.StopArrivals{Stop: stop, Arrivals: arrivals}, true
}

// Feed renders the GTFS-RT TripUpdates feed for now
func (s *Service) Feed(now time.Time) *gtfs.FeedMessage {
	if s.metrics != nil {
		s.metrics.FeedBuilds.Inc()
	}
	return BuildTripUpdates(s.catalog.Stops(), s.est, now)
}

// Board returns arrivals for every stop plus the encoded feed
func (s *Service) Board(now time.Time) ([]models.StopArrivals, []byte, error) {
	stops := s.catalog.Stops()
	boards := make([]models.StopArrivals, 0, len(stops))
	for _, stop := range stops {
		boards = append(boards, models.StopArrivals{Stop: stop, Arrivals: s.est.Arrivals(stop)})
	}

	feed, err := MarshalFeed(s.Feed(now))
	if err != nil {
		return nil, nil, err
	}
	return boards, feed, nil
}
