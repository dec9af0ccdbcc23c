package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kentrehber/durak/internal/models"
)

// stopsJSON is the bundled Şanlıurfa stop table.
//
//go:embed data/stops.json
var stopsJSON []byte

type table struct {
	Stops []models.Stop `json:"stops"`
}

// Default returns the catalog built from the embedded data table
func Default() (*Catalog, error) {
	records, err := decode(stopsJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding embedded stops: %w", err)
	}
	return New(records)
}

// DefaultRecords returns a fresh copy of the embedded records
func DefaultRecords() ([]models.Stop, error) {
	return decode(stopsJSON)
}

// Load reads a stop table in the same JSON shape as the embedded one
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stop table: %w", err)
	}
	records, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing stop table: %w", err)
	}
	return New(records)
}

// LoadFile reads a stop table from a JSON file
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stop table: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func decode(data []byte) ([]models.Stop, error) {
	var t table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return t.Stops, nil
}
