// Package geo provides spherical-earth geodesy helpers used by the
// dispersion engine: distances, bearings, destination points, and local
// east/north offsets relative to an origin.
package geo

import "math"

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// HaversineDistance returns the great-circle distance between two points
// in meters.
func HaversineDistance(from, to Point) float64 {
	lat1 := radians(from.Lat)
	lat2 := radians(to.Lat)
	dLat := radians(to.Lat - from.Lat)
	dLon := radians(to.Lon - from.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// InitialBearing returns the initial bearing from one point to another in
// degrees clockwise from true north, normalized to [0, 360).
func InitialBearing(from, to Point) float64 {
	lat1 := radians(from.Lat)
	lat2 := radians(to.Lat)
	dLon := radians(to.Lon - from.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeBearing(degrees(math.Atan2(y, x)))
}

// Destination returns the point reached by travelling the given distance
// in meters along the given bearing (degrees clockwise from north).
func Destination(from Point, bearingDeg, distance float64) Point {
	lat1 := radians(from.Lat)
	lon1 := radians(from.Lon)
	brg := radians(bearingDeg)
	d := distance / EarthRadius

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) +
		math.Cos(lat1)*math.Sin(d)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Point{
		Lat: degrees(lat2),
		Lon: normalizeLon(degrees(lon2)),
	}
}

// LocalOffsets returns the east and north offsets in meters of a point
// relative to an origin, using an equirectangular approximation. Accurate
// to well under a meter over the few-kilometer scales a plume covers.
func LocalOffsets(origin, p Point) (east, north float64) {
	east = radians(p.Lon-origin.Lon) * EarthRadius * math.Cos(radians(origin.Lat))
	north = radians(p.Lat-origin.Lat) * EarthRadius
	return east, north
}

// NormalizeBearing wraps a bearing in degrees into [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// ValidCoordinates reports whether lat/lon form a finite, in-range
// geographic coordinate.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func normalizeLon(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
