package location

// CityCenter is the reference point used to decide whether a user is
// close enough to the network to center the map on them.
type CityCenter struct {
	Lat           float64
	Lng           float64
	FarKm         float64
	DefaultRegion string
}

// DistanceFrom returns the distance in km from the center to a point
func (c CityCenter) DistanceFrom(lat, lng float64) float64 {
	return DistanceKm(c.Lat, c.Lng, lat, lng)
}

// IsFar reports whether a point lies beyond the configured threshold.
// A non-positive threshold disables the check.
func (c CityCenter) IsFar(lat, lng float64) bool {
	if c.FarKm <= 0 {
		return false
	}
	return c.DistanceFrom(lat, lng) > c.FarKm
}
