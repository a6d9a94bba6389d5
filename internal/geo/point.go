// Package geo holds the spherical geometry used by the extractors and the
// road sampler. Everything here is pure and allocation free.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// EarthRadiusKm is the sphere radius used for all distance computations
	EarthRadiusKm = 6360.0

	// UnitsPerKm is the scale of Distance results (millimetres)
	UnitsPerKm = 1_000_000
)

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64
	Lon float64
}

// Orb converts the point to an orb.Point (X = lon, Y = lat)
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb.Point back to a Point
func FromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lon: p.Lon()}
}

func deg2rad(x float64) float64 {
	return x * math.Pi / 180
}

func rad2deg(x float64) float64 {
	return x * 180 / math.Pi
}

// haversine returns the haversine term h for two points, clamped to [0, 1]
func haversine(a, b Point) float64 {
	lat1, lat2 := deg2rad(a.Lat), deg2rad(b.Lat)
	latSin := math.Sin((lat1 - lat2) / 2)
	lonSin := math.Sin((deg2rad(a.Lon) - deg2rad(b.Lon)) / 2)
	h := latSin*latSin + math.Cos(lat1)*math.Cos(lat2)*lonSin*lonSin
	if h > 1 {
		h = 1
	}
	return h
}

// AngularDistance returns the central angle between a and b in radians
func AngularDistance(a, b Point) float64 {
	return 2 * math.Asin(math.Sqrt(haversine(a, b)))
}

// Distance returns the great-circle distance between a and b in millimetres.
// Integer units keep cumulative road lengths exact.
func Distance(a, b Point) uint64 {
	km := EarthRadiusKm * AngularDistance(a, b)
	return uint64(math.Floor(km * UnitsPerKm))
}

// DistanceKm is Distance expressed in kilometres
func DistanceKm(a, b Point) float64 {
	return EarthRadiusKm * AngularDistance(a, b)
}

// Slerp interpolates along the great circle from a (alpha=0) to b (alpha=1).
// A zero-length arc has no direction; a is returned in that case.
func Slerp(a Point, alpha float64, b Point) Point {
	d := AngularDistance(a, b)
	sinD := math.Sin(d)
	if sinD == 0 {
		return a
	}

	lat1, lon1 := deg2rad(a.Lat), deg2rad(a.Lon)
	lat2, lon2 := deg2rad(b.Lat), deg2rad(b.Lon)

	fa := math.Sin((1-alpha)*d) / sinD
	fb := math.Sin(alpha*d) / sinD

	x := fa*math.Cos(lat1)*math.Cos(lon1) + fb*math.Cos(lat2)*math.Cos(lon2)
	y := fa*math.Cos(lat1)*math.Sin(lon1) + fb*math.Cos(lat2)*math.Sin(lon2)
	z := fa*math.Sin(lat1) + fb*math.Sin(lat2)

	return Point{
		Lat: rad2deg(math.Atan2(z, math.Sqrt(x*x+y*y))),
		Lon: rad2deg(math.Atan2(y, x)),
	}
}

// FlatLerp linearly interpolates y at x on the line (x1,y1)-(x2,y2)
func FlatLerp(x1, x2, y1, y2, x float64) float64 {
	return y1 + (x-x1)*(y2-y1)/(x2-x1)
}
