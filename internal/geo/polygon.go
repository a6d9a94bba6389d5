package geo

import "math"

// Edge is a directed boundary segment
type Edge struct {
	A, B Point
}

// MinLon returns the lower longitude of the two endpoints
func (e Edge) MinLon() float64 {
	return math.Min(e.A.Lon, e.B.Lon)
}

// PointInPolygon applies the even-odd rule to an unordered set of edges,
// casting the ray south from p. Comparisons are half-open so a vertex shared
// by two edges is counted once.
func PointInPolygon(p Point, edges []Edge) bool {
	crossings := 0
	for _, e := range edges {
		a, b := e.A, e.B
		switch {
		case a.Lon <= p.Lon && b.Lon <= p.Lon:
			// west
		case a.Lon >= p.Lon && b.Lon >= p.Lon:
			// east
		case a.Lat >= p.Lat && b.Lat >= p.Lat:
			// entirely north
		case a.Lat <= p.Lat && b.Lat <= p.Lat:
			crossings++
		default:
			if FlatLerp(a.Lon, b.Lon, a.Lat, b.Lat, p.Lon) <= p.Lat {
				crossings++
			}
		}
	}
	return crossings%2 == 1
}
