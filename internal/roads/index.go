package roads

// LengthIndex is the cumulative length table of a network, in millimetres
type LengthIndex struct {
	RoadStart []uint64   // offset of each road's first node
	Segments  [][]uint64 // per road, per segment length
	Total     uint64
}

// Position is an offset mapped onto a segment
type Position struct {
	Road      int
	Segment   int
	Remaining uint64 // distance into the segment
	Length    uint64 // segment length
}

// Alpha returns the interpolation fraction within the segment. It is NaN on
// a zero-length segment.
func (p Position) Alpha() float64 {
	return float64(p.Remaining) / float64(p.Length)
}

// cursor maps ascending offsets to segments. Both the road and segment
// positions only move forward, so a sorted sweep is linear overall.
type cursor struct {
	idx      *LengthIndex
	road     int
	segment  int
	consumed uint64 // length of the segments before segment, within road
}

func newCursor(idx *LengthIndex) *cursor {
	return &cursor{idx: idx}
}

// locate maps offset, which must not be smaller than the previous one. ok
// is false when the cursor's road has no segments.
func (c *cursor) locate(offset uint64) (pos Position, ok bool) {
	for c.road+1 < len(c.idx.RoadStart) && c.idx.RoadStart[c.road+1] <= offset {
		c.road++
		c.segment = 0
		c.consumed = 0
	}

	segments := c.idx.Segments[c.road]
	if len(segments) == 0 {
		return Position{Road: c.road}, false
	}

	inRoad := offset - c.idx.RoadStart[c.road]
	for c.segment+1 < len(segments) && c.consumed+segments[c.segment] < inRoad {
		c.consumed += segments[c.segment]
		c.segment++
	}

	return Position{
		Road:      c.road,
		Segment:   c.segment,
		Remaining: inRoad - c.consumed,
		Length:    segments[c.segment],
	}, true
}
