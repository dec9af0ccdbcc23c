package transit

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentrehber/durak/internal/location"
	"github.com/kentrehber/durak/internal/metrics"
)

func newTestService(t *testing.T) (*Service, *metrics.Collector) {
	t.Helper()
	m := metrics.NewCollector()
	svc := NewService(defaultCatalog(t), NewSeededEstimator(11, DefaultJitterBand), time.Minute, m)
	t.Cleanup(svc.Close)
	return svc, m
}

func TestServiceCatalogGauges(t *testing.T) {
	_, m := newTestService(t)

	assert.Equal(t, 23.0, testutil.ToFloat64(m.CatalogStops))
	assert.Equal(t, 57.0, testutil.ToFloat64(m.CatalogLines))
}

func TestServicePlanCaches(t *testing.T) {
	svc, m := newTestService(t)

	first, err := svc.Plan("abide", "osmanbey")
	require.NoError(t, err)
	second, err := svc.Plan("abide", "osmanbey")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanCacheHits.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanCacheHits.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoutePlans.WithLabelValues("direct")))
}

func TestServicePlanNotFoundNotCached(t *testing.T) {
	svc, m := newTestService(t)

	for i := 0; i < 2; i++ {
		_, err := svc.Plan("abide", "nope")
		assert.ErrorIs(t, err, ErrStopNotFound)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PlanCacheHits.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoutePlans.WithLabelValues("not_found")))
}

func TestServicePlanResultLabels(t *testing.T) {
	svc, m := newTestService(t)

	// gobeklitepe only has line 0, which reaches otogar directly
	_, err := svc.Plan("gobeklitepe", "otogar")
	require.NoError(t, err)
	_, err = svc.Plan("abide", "abide")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoutePlans.WithLabelValues("direct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoutePlans.WithLabelValues("none")))
}

func TestServiceNearest(t *testing.T) {
	svc, _ := newTestService(t)

	nearest, closest, err := svc.Nearest(37.165461, 38.796836, 3)
	require.NoError(t, err)
	assert.Equal(t, "abide", nearest.ID)
	assert.Less(t, nearest.DistanceKm, 0.01)
	require.Len(t, closest, 3)
	assert.Equal(t, "abide", closest[0].ID)
	assert.Equal(t, "novada", closest[1].ID)
}

func TestServiceNearestEmptyCatalog(t *testing.T) {
	svc := NewService(buildCatalog(t), NewSeededEstimator(1, DefaultJitterBand), time.Minute, nil)
	defer svc.Close()

	_, _, err := svc.Nearest(37.1, 38.7, 3)
	assert.ErrorIs(t, err, location.ErrEmptyCatalog)
}

func TestServiceStopArrivals(t *testing.T) {
	svc, m := newTestService(t)

	board, ok := svc.StopArrivals("osmanbey")
	require.True(t, ok)
	assert.Equal(t, "osmanbey", board.Stop.ID)
	assert.Len(t, board.Arrivals, 6)
	assert.Equal(t, 6.0, testutil.ToFloat64(m.ETAEstimates))

	_, ok = svc.StopArrivals("nope")
	assert.False(t, ok)
}

func TestServiceBoard(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now()

	boards, feed, err := svc.Board(now)
	require.NoError(t, err)
	assert.Len(t, boards, 23)

	arrivals, err := ParseTripUpdates(feed, now)
	require.NoError(t, err)
	assert.Len(t, arrivals, 107)
}
