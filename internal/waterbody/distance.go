package waterbody

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// DistanceMeters returns the great-circle distance between two points using
// the haversine formula. Identical points yield 0. Inputs are assumed to be
// valid finite coordinates; the normalizer omits coordinates it cannot parse
// rather than passing NaN through.
func DistanceMeters(a, b LatLng) float64 {
	if a == b {
		return 0
	}

	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
