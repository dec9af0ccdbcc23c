// Package transit implements route planning, ETA estimation and stop
// search over the static catalog
package transit

import (
	"errors"
	"fmt"

	"github.com/kentrehber/durak/internal/location"
	"github.com/kentrehber/durak/internal/models"
)

// ErrStopNotFound is returned when an origin or destination is not in the catalog.
var ErrStopNotFound = errors.New("stop not found")

// StopIndex is the read-only view of the catalog the planner needs.
type StopIndex interface {
	Stop(id string) (models.Stop, bool)
	StopsServing(line string) []models.Stop
}

type transferKey struct {
	first, second, via string
}

// PlanRoutes enumerates direct and one-transfer routes between two stops.
// Direct routes come first, in the origin's line order, followed by
// transfers in discovery order. Routes are not ranked.
//
// A line that already connects origin and destination directly is never
// used as either leg of a transfer.
func PlanRoutes(idx StopIndex, originID, destID string) ([]models.Route, error) {
	origin, ok := idx.Stop(originID)
	if !ok {
		return nil, fmt.Errorf("%w: origin %q", ErrStopNotFound, originID)
	}
	dest, ok := idx.Stop(destID)
	if !ok {
		return nil, fmt.Errorf("%w: destination %q", ErrStopNotFound, destID)
	}
	if originID == destID {
		return []models.Route{}, nil
	}

	destLines := lineSet(dest)
	directDist := location.DistanceKm(origin.Lat, origin.Lng, dest.Lat, dest.Lng)

	routes := []models.Route{}
	direct := make(map[string]bool)
	for _, ls := range origin.Lines {
		if !destLines[ls.Line] || direct[ls.Line] {
			continue
		}
		direct[ls.Line] = true
		routes = append(routes, models.Route{
			Kind:       models.RouteDirect,
			Line:       ls.Line,
			DistanceKm: directDist,
		})
	}

	seen := make(map[transferKey]bool)
	for _, first := range origin.Lines {
		if direct[first.Line] {
			continue
		}

		for _, via := range idx.StopsServing(first.Line) {
			if via.ID == originID || via.ID == destID {
				continue
			}

			for _, second := range via.Lines {
				if !destLines[second.Line] || direct[second.Line] || second.Line == first.Line {
					continue
				}

				key := transferKey{first: first.Line, second: second.Line, via: via.ID}
				if seen[key] {
					continue
				}
				seen[key] = true

				routes = append(routes, models.Route{
					Kind:             models.RouteTransfer,
					Line:             first.Line,
					TransferStopID:   via.ID,
					TransferStopName: via.Name,
					SecondLine:       second.Line,
					DistanceKm: location.DistanceKm(origin.Lat, origin.Lng, via.Lat, via.Lng) +
						location.DistanceKm(via.Lat, via.Lng, dest.Lat, dest.Lng),
				})
			}
		}
	}

	return routes, nil
}

// CountKinds returns the number of direct and transfer routes
func CountKinds(routes []models.Route) (direct, transfer int) {
	for _, r := range routes {
		switch r.Kind {
		case models.RouteDirect:
			direct++
		case models.RouteTransfer:
			transfer++
		}
	}
	return direct, transfer
}

func lineSet(s models.Stop) map[string]bool {
	set := make(map[string]bool, len(s.Lines))
	for _, ls := range s.Lines {
		set[ls.Line] = true
	}
	return set
}
