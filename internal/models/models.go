// Package models defines shared data types
package models

// LineService is one bus line as served at one stop
type LineService struct {
	Line     string `json:"line"`
	Route    string `json:"route"`
	BaseTime int    `json:"base_time"` // scheduled minutes to arrival
	Color    string `json:"color,omitempty"`
}

// Stop represents a bus stop and the lines serving it
type Stop struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Lat    float64       `json:"lat"`
	Lng    float64       `json:"lng"`
	Region string        `json:"region"`
	Lines  []LineService `json:"lines"`
}

// HasLine reports whether the stop is served by the given line identifier.
func (s Stop) HasLine(line string) bool {
	for _, ls := range s.Lines {
		if ls.Line == line {
			return true
		}
	}
	return false
}

// StopWithDistance is a Stop with distance from a reference point
type StopWithDistance struct {
	Stop
	DistanceKm float64 `json:"distance_km"`
}

// RouteKind distinguishes direct routes from one-transfer routes
type RouteKind string

const (
	RouteDirect   RouteKind = "direct"
	RouteTransfer RouteKind = "transfer"
)

// Route is a planning result. Line serves the origin; for transfers,
// SecondLine serves both the transfer stop and the destination.
type Route struct {
	Kind             RouteKind `json:"kind"`
	Line             string    `json:"line"`
	TransferStopID   string    `json:"transfer_stop_id,omitempty"`
	TransferStopName string    `json:"transfer_stop_name,omitempty"`
	SecondLine       string    `json:"second_line,omitempty"`
	DistanceKm       float64   `json:"distance_km"`
}

// Arrival is an estimated arrival of a line at a stop
type Arrival struct {
	Line        string `json:"line"`
	Route       string `json:"route"`
	Color       string `json:"color,omitempty"`
	BaseTime    int    `json:"base_time"`
	MinutesAway int    `json:"minutes_away"`
}

// StopArrivals groups the estimated arrivals for one stop
type StopArrivals struct {
	Stop     Stop      `json:"stop"`
	Arrivals []Arrival `json:"arrivals"`
}

// LineSummary describes one line across the whole catalog
type LineSummary struct {
	Line      string   `json:"line"`
	Route     string   `json:"route"`
	Color     string   `json:"color,omitempty"`
	StopIDs   []string `json:"stop_ids"`
	StopCount int      `json:"stop_count"`
}
