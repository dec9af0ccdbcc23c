// Package main is the entry point for the durak server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kentrehber/durak/internal/api"
	"github.com/kentrehber/durak/internal/catalog"
	"github.com/kentrehber/durak/internal/config"
	"github.com/kentrehber/durak/internal/metrics"
	"github.com/kentrehber/durak/internal/publisher"
	"github.com/kentrehber/durak/internal/store"
	"github.com/kentrehber/durak/internal/transit"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, source, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("catalog loaded",
		"source", source,
		"stops", cat.Len(),
		"lines", len(cat.Lines()),
		"regions", len(cat.Regions()),
	)

	seed := cfg.ETASeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	est := transit.NewSeededEstimator(seed, cfg.JitterBand())

	m := metrics.NewCollector()
	svc := transit.NewService(cat, est, cfg.CacheTTL, m)
	defer svc.Close()

	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, m)
		if err != nil {
			slog.Warn("board publisher disabled", "error", err)
		} else {
			defer pub.Close()
			go pub.Run(ctx, svc, cfg.PublishInterval)
			slog.Info("board publisher started",
				"subject_prefix", cfg.NATSSubjectPrefix,
				"interval", cfg.PublishInterval.String(),
			)
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(cfg, svc, cat, m),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("durak server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"url", "http://localhost:"+cfg.Port,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadCatalog prefers an explicit file, then the database, then the
// embedded table.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, string, error) {
	if cfg.CatalogFile != "" {
		cat, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, "", fmt.Errorf("loading catalog file: %w", err)
		}
		return cat, "file", nil
	}

	if cfg.CatalogDBDSN != "" {
		cat, err := loadFromDB(ctx, cfg.CatalogDBDriver, cfg.CatalogDBDSN)
		if err != nil {
			return nil, "", err
		}
		return cat, cfg.CatalogDBDriver, nil
	}

	cat, err := catalog.Default()
	if err != nil {
		return nil, "", err
	}
	return cat, "embedded", nil
}

func loadFromDB(ctx context.Context, driver, dsn string) (*catalog.Catalog, error) {
	st, err := store.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	stops, err := st.LoadStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog from database: %w", err)
	}
	return catalog.New(stops)
}
