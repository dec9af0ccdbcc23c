// Package catalog holds the immutable stop/line reference data
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kentrehber/durak/internal/location"
	"github.com/kentrehber/durak/internal/models"
)

// ErrInvalidCatalog wraps every validation failure raised by New.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the full set of stops, indexed by stop ID and by line.
// It is never mutated after New returns, so it is safe to share.
type Catalog struct {
	stops     []models.Stop
	byID      map[string]int
	lineStops map[string][]int
	regions   []string
}

// New validates the records and builds the indexes. The records are
// copied, so later changes to the input do not leak into the catalog.
func New(records []models.Stop) (*Catalog, error) {
	c := &Catalog{
		stops:     make([]models.Stop, 0, len(records)),
		byID:      make(map[string]int, len(records)),
		lineStops: make(map[string][]int),
	}

	seenRegion := make(map[string]bool)
	for _, rec := range records {
		if err := validate(rec); err != nil {
			return nil, err
		}
		if _, dup := c.byID[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate stop id %q", ErrInvalidCatalog, rec.ID)
		}

		stop := rec
		stop.Lines = slices.Clone(rec.Lines)
		idx := len(c.stops)
		c.stops = append(c.stops, stop)
		c.byID[stop.ID] = idx

		seenLine := make(map[string]bool, len(stop.Lines))
		for _, ls := range stop.Lines {
			if seenLine[ls.Line] {
				continue
			}
			seenLine[ls.Line] = true
			c.lineStops[ls.Line] = append(c.lineStops[ls.Line], idx)
		}

		if stop.Region != "" && !seenRegion[stop.Region] {
			seenRegion[stop.Region] = true
			c.regions = append(c.regions, stop.Region)
		}
	}

	return c, nil
}

func validate(s models.Stop) error {
	if s.ID == "" {
		return fmt.Errorf("%w: stop with empty id", ErrInvalidCatalog)
	}
	if !location.IsValidLatLng(s.Lat, s.Lng) {
		return fmt.Errorf("%w: stop %q has invalid coordinate (%f, %f)", ErrInvalidCatalog, s.ID, s.Lat, s.Lng)
	}
	if len(s.Lines) == 0 {
		return fmt.Errorf("%w: stop %q has no lines", ErrInvalidCatalog, s.ID)
	}
	for _, ls := range s.Lines {
		if ls.Line == "" {
			return fmt.Errorf("%w: stop %q has a line with empty id", ErrInvalidCatalog, s.ID)
		}
		if ls.BaseTime <= 0 {
			return fmt.Errorf("%w: stop %q line %q has non-positive base time %d", ErrInvalidCatalog, s.ID, ls.Line, ls.BaseTime)
		}
	}
	return nil
}

// Stops returns all stops in catalog order. Callers must treat the
// returned stops as read-only.
func (c *Catalog) Stops() []models.Stop {
	return slices.Clone(c.stops)
}

// Len returns the number of stops
func (c *Catalog) Len() int {
	return len(c.stops)
}

// Stop returns a stop by its ID
func (c *Catalog) Stop(id string) (models.Stop, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return models.Stop{}, false
	}
	return c.stops[idx], true
}

// StopsServing returns the stops served by a line, in catalog order
func (c *Catalog) StopsServing(line string) []models.Stop {
	idxs := c.lineStops[line]
	out := make([]models.Stop, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, c.stops[idx])
	}
	return out
}

// Regions returns each distinct region in order of first appearance
func (c *Catalog) Regions() []string {
	return slices.Clone(c.regions)
}

// Lines summarises every line in order of first appearance. Route and
// color come from the first stop that lists the line.
func (c *Catalog) Lines() []models.LineSummary {
	var summaries []models.LineSummary
	pos := make(map[string]int)

	for _, stop := range c.stops {
		for _, ls := range stop.Lines {
			i, ok := pos[ls.Line]
			if !ok {
				i = len(summaries)
				pos[ls.Line] = i
				summaries = append(summaries, models.LineSummary{
					Line:  ls.Line,
					Route: ls.Route,
					Color: ls.Color,
				})
			}
			if !slices.Contains(summaries[i].StopIDs, stop.ID) {
				summaries[i].StopIDs = append(summaries[i].StopIDs, stop.ID)
				summaries[i].StopCount++
			}
		}
	}

	return summaries
}
