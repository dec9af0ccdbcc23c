package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/kentrehber/durak/internal/api/handlers"
	"github.com/kentrehber/durak/internal/config"
	"github.com/kentrehber/durak/internal/location"
	"github.com/kentrehber/durak/internal/metrics"
)

const requestTimeout = 15 * time.Second

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(
	cfg *config.Config,
	transitSvc handlers.TransitProvider,
	catalog handlers.CatalogProvider,
	m *metrics.Collector,
) http.Handler {
	r := chi.NewRouter()

	center := location.CityCenter{
		Lat:           cfg.CityCenterLat,
		Lng:           cfg.CityCenterLng,
		FarKm:         cfg.FarThresholdKm,
		DefaultRegion: cfg.DefaultRegion,
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(catalog)
	rootHandler := handlers.NewRootHandler()
	locationHandler := handlers.NewLocationHandler(transitSvc, catalog, center, m)
	transitHandler := handlers.NewTransitHandler(transitSvc, catalog)

	r.Use(
		RequestID,
		Recovery,
		Logging,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}),
		Instrument(m.RequestDuration),
		Timeout(requestTimeout),
	)

	// Core routes
	r.Get("/", rootHandler.Index)
	r.Get("/api", rootHandler.Index)
	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/transit", func(r chi.Router) {
		r.Get("/regions", locationHandler.GetRegions)
		r.Get("/lines", transitHandler.GetLines)

		r.Get("/stops", transitHandler.GetStops)
		r.Get("/stops/nearest", locationHandler.GetNearestStop)
		r.Get("/stops/{stopId}", transitHandler.GetStop)
		r.Get("/favorites", transitHandler.GetFavorites)

		r.Get("/routes", transitHandler.GetRoutes)
		r.Get("/feed/trip-updates", transitHandler.GetTripUpdatesFeed)
	})

	r.NotFound(rootHandler.NotFound)

	return r
}
