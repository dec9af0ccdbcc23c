// Package store persists the stop catalog in SQLite or PostgreSQL so it
// can be maintained outside the binary.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/kentrehber/durak/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS stops (
	stop_id   TEXT PRIMARY KEY,
	position  INTEGER NOT NULL,
	name      TEXT NOT NULL,
	lat       DOUBLE PRECISION NOT NULL,
	lng       DOUBLE PRECISION NOT NULL,
	region    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS stop_lines (
	stop_id   TEXT NOT NULL REFERENCES stops(stop_id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	line      TEXT NOT NULL,
	route     TEXT NOT NULL,
	base_time INTEGER NOT NULL,
	color     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (stop_id, position)
);
`

// Store reads and writes catalog tables through database/sql
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects with the given driver ("sqlite" or "pgx") and pings.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite":
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	case "pgx":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows one writer; a single connection avoids lock errors
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the catalog tables if they are missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// ReplaceCatalog swaps the stored catalog for stops in one transaction
func (s *Store) ReplaceCatalog(ctx context.Context, stops []models.Stop) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stop_lines`); err != nil {
		return fmt.Errorf("clearing stop_lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stops`); err != nil {
		return fmt.Errorf("clearing stops: %w", err)
	}

	insertStop := s.rebind(`INSERT INTO stops (stop_id, position, name, lat, lng, region) VALUES (?, ?, ?, ?, ?, ?)`)
	insertLine := s.rebind(`INSERT INTO stop_lines (stop_id, position, line, route, base_time, color) VALUES (?, ?, ?, ?, ?, ?)`)

	for i, stop := range stops {
		if _, err := tx.ExecContext(ctx, insertStop, stop.ID, i, stop.Name, stop.Lat, stop.Lng, stop.Region); err != nil {
			return fmt.Errorf("inserting stop %q: %w", stop.ID, err)
		}
		for j, ls := range stop.Lines {
			if _, err := tx.ExecContext(ctx, insertLine, stop.ID, j, ls.Line, ls.Route, ls.BaseTime, ls.Color); err != nil {
				return fmt.Errorf("inserting line %q at stop %q: %w", ls.Line, stop.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadStops returns all stored stops in their original table order
func (s *Store) LoadStops(ctx context.Context) ([]models.Stop, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stop_id, name, lat, lng, region FROM stops ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query stops: %w", err)
	}
	defer rows.Close()

	var stops []models.Stop
	index := make(map[string]int)
	for rows.Next() {
		var st models.Stop
		if err := rows.Scan(&st.ID, &st.Name, &st.Lat, &st.Lng, &st.Region); err != nil {
			return nil, err
		}
		index[st.ID] = len(stops)
		stops = append(stops, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := s.db.QueryContext(ctx, `SELECT stop_id, line, route, base_time, color FROM stop_lines ORDER BY stop_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query stop_lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var stopID string
		var ls models.LineService
		if err := lineRows.Scan(&stopID, &ls.Line, &ls.Route, &ls.BaseTime, &ls.Color); err != nil {
			return nil, err
		}
		i, ok := index[stopID]
		if !ok {
			continue
		}
		stops[i].Lines = append(stops[i].Lines, ls)
	}
	return stops, lineRows.Err()
}

// rebind rewrites ? placeholders as $n for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
