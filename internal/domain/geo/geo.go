// Package geo provides the coordinate value type and great-circle distance
// computation used by the matching layer.
package geo

import "math"

// Earth radius used by the haversine formula, in kilometers.
const earthRadiusKm = 6371.0

// Coordinates is an immutable latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the pair lies within the WGS84 ranges and both
// components are finite numbers. Callers validate at the resolver boundary;
// DistanceKm itself assumes valid input.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return false
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// DistanceKm returns the haversine great-circle distance between a and b,
// rounded to one decimal place. It is a total function over valid coordinates
// and is symmetric in its arguments.
func DistanceKm(a, b Coordinates) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(earthRadiusKm*c*10) / 10
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
