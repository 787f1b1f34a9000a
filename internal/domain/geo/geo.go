// Package geo holds the coordinate math used to narrow trial sites by distance.
package geo

import "math"

// EarthRadiusMiles is the mean radius of Earth used for Haversine distance.
const EarthRadiusMiles = 3958.8

// Location is an immutable latitude/longitude pair in degrees.
type Location struct {
	lat float64
	lon float64
}

// NewLocation creates a Location from latitude and longitude in degrees.
func NewLocation(lat, lon float64) Location {
	return Location{lat: lat, lon: lon}
}

// Lat returns the latitude in degrees.
func (l Location) Lat() float64 { return l.lat }

// Lon returns the longitude in degrees.
func (l Location) Lon() float64 { return l.lon }

// Valid reports whether the pair lies within the legal coordinate ranges.
func (l Location) Valid() bool {
	return ValidateCoordinates(l.lat, l.lon)
}

// DistanceMiles returns the great-circle distance to other in statute miles.
func (l Location) DistanceMiles(other Location) float64 {
	return Haversine(l.lat, l.lon, other.lat, other.lon)
}

// Haversine returns the great-circle distance in miles between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
