// Command seed-catalog writes a stop table into the catalog database.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kentrehber/durak/internal/catalog"
	"github.com/kentrehber/durak/internal/store"
)

func main() {
	_ = godotenv.Load()

	driver := flag.String("driver", envOr("CATALOG_DB_DRIVER", "sqlite"), "database driver: sqlite or pgx")
	dsn := flag.String("dsn", os.Getenv("CATALOG_DB_DSN"), "database DSN")
	file := flag.String("file", "", "JSON stop table (defaults to the embedded table)")
	flag.Parse()

	if err := seed(*driver, *dsn, *file); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func seed(driver, dsn, file string) error {
	if dsn == "" {
		return errors.New("-dsn or CATALOG_DB_DSN is required")
	}

	var (
		cat *catalog.Catalog
		err error
	)
	if file != "" {
		cat, err = catalog.LoadFile(file)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := st.ReplaceCatalog(ctx, cat.Stops()); err != nil {
		return err
	}

	slog.Info("catalog seeded", "driver", driver, "stops", cat.Len(), "lines", len(cat.Lines()))
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
