// Package metrics exposes Prometheus instrumentation for the service
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	CatalogStops prometheus.Gauge
	CatalogLines prometheus.Gauge

	RoutePlans    *prometheus.CounterVec // result label: direct|transfer|none|not_found
	PlanDuration  prometheus.Histogram
	PlanCacheHits *prometheus.CounterVec // outcome label: hit|miss

	NearestLookups  *prometheus.CounterVec // far label: true|false
	SearchQueries   prometheus.Counter
	FeedBuilds      prometheus.Counter
	ETAEstimates    prometheus.Counter
	BoardPublished  prometheus.Counter
	BoardPublishErr prometheus.Counter
	NATSConnected   prometheus.Gauge

	RequestDuration *prometheus.HistogramVec // route, status labels
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		CatalogStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "durak_catalog_stops",
			Help: "Number of stops in the loaded catalog.",
		}),
		CatalogLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "durak_catalog_lines",
			Help: "Number of distinct lines in the loaded catalog.",
		}),
		RoutePlans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "durak_route_plans_total",
			Help: "Route planning requests by best result kind.",
		}, []string{"result"}),
		PlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "durak_route_plan_duration_seconds",
			Help:    "Time spent computing route plans.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		PlanCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "durak_route_plan_cache_total",
			Help: "Route plan cache lookups by outcome.",
		}, []string{"outcome"}),
		NearestLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "durak_nearest_stop_lookups_total",
			Help: "Nearest stop lookups, split by whether the point was far from the city center.",
		}, []string{"far"}),
		SearchQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "durak_stop_search_total",
			Help: "Stop search/filter requests.",
		}),
		FeedBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "durak_feed_builds_total",
			Help: "GTFS-Realtime feeds rendered.",
		}),
		ETAEstimates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "durak_eta_estimates_total",
			Help: "Arrival estimates produced for API responses.",
		}),
		BoardPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "durak_board_published_total",
			Help: "ETA board messages published to NATS.",
		}),
		BoardPublishErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "durak_board_publish_errors_total",
			Help: "ETA board publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "durak_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "durak_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		c.CatalogStops, c.CatalogLines,
		c.RoutePlans, c.PlanDuration, c.PlanCacheHits,
		c.NearestLookups, c.SearchQueries, c.FeedBuilds, c.ETAEstimates,
		c.BoardPublished, c.BoardPublishErr, c.NATSConnected,
		c.RequestDuration,
	)

	return c
}

// Registry returns the private registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// ObservePlan records one planning call
func (c *Collector) ObservePlan(result string, d time.Duration) {
	c.RoutePlans.WithLabelValues(result).Inc()
	c.PlanDuration.Observe(d.Seconds())
}

// ObserveCache records a plan cache lookup
func (c *Collector) ObserveCache(hit bool) {
	if hit {
		c.PlanCacheHits.WithLabelValues("hit").Inc()
		return
	}
	c.PlanCacheHits.WithLabelValues("miss").Inc()
}

// ObserveNearest records a nearest-stop lookup
func (c *Collector) ObserveNearest(far bool) {
	c.NearestLookups.WithLabelValues(strconv.FormatBool(far)).Inc()
}

// The methods below satisfy publisher.Metrics.

func (c *Collector) BoardPublishedInc() { c.BoardPublished.Inc() }
func (c *Collector) BoardPublishErrInc() { c.BoardPublishErr.Inc() }
func (c *Collector) NATSSetConnected(b bool) {
	if b {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}
