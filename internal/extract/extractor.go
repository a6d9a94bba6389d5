// Package extract pulls tag-filtered point locations out of an OSM stream.
//
// Nodes are taken directly in the first pass. Ways (building outlines and
// similar) are approximated by their first node, whose location is only
// known once the second pass has seen it.
package extract

import (
	"fmt"

	"github.com/paulmach/osm"

	"github.com/wegman-software/geoplaces/internal/geo"
	"github.com/wegman-software/geoplaces/internal/sink"
	"github.com/wegman-software/geoplaces/internal/tagfilter"
)

// Extractor collects the locations of elements matching one tag filter
type Extractor struct {
	name   string
	filter tagfilter.TagFilter

	points []geo.Point

	// first node of each matching way, one entry per matching tag
	pending     map[osm.NodeID]int
	emptyWays   int
	nodeMatches int
	wayResolved int
}

// New creates an extractor for the named dataset
func New(name string, filter tagfilter.TagFilter) *Extractor {
	return &Extractor{
		name:    name,
		filter:  filter,
		pending: make(map[osm.NodeID]int),
	}
}

// Name returns the dataset name
func (e *Extractor) Name() string {
	return e.name
}

// Filter returns the tag filter
func (e *Extractor) Filter() tagfilter.TagFilter {
	return e.filter
}

// FirstPass records matching nodes and marks the first node of matching ways
func (e *Extractor) FirstPass(obj osm.Object) {
	switch o := obj.(type) {
	case *osm.Node:
		n := e.filter.Count(o.Tags)
		for i := 0; i < n; i++ {
			e.points = append(e.points, geo.Point{Lat: o.Lat, Lon: o.Lon})
		}
		e.nodeMatches += n
	case *osm.Way:
		n := e.filter.Count(o.Tags)
		if n == 0 {
			return
		}
		if len(o.Nodes) == 0 {
			e.emptyWays++
			return
		}
		e.pending[o.Nodes[0].ID] += n
	}
}

// SecondPass resolves the pending way nodes
func (e *Extractor) SecondPass(obj osm.Object) {
	n, ok := obj.(*osm.Node)
	if !ok {
		return
	}
	count, ok := e.pending[n.ID]
	if !ok {
		return
	}
	for i := 0; i < count; i++ {
		e.points = append(e.points, geo.Point{Lat: n.Lat, Lon: n.Lon})
	}
	e.wayResolved += count
}

// NeedsSecondPass reports whether any way matched
func (e *Extractor) NeedsSecondPass() bool {
	return len(e.pending) > 0
}

// Pending returns the number of distinct way nodes awaiting resolution
func (e *Extractor) Pending() int {
	return len(e.pending)
}

// Len returns the number of recorded points
func (e *Extractor) Len() int {
	return len(e.points)
}

// Points returns the recorded points in the order they were observed
func (e *Extractor) Points() []geo.Point {
	return e.points
}

// Stats summarizes what the extractor matched
type Stats struct {
	NodeMatches int
	WayMatches  int // resolved in the second pass
	EmptyWays   int // matching ways without node references
}

// Stats returns match counters
func (e *Extractor) Stats() Stats {
	return Stats{
		NodeMatches: e.nodeMatches,
		WayMatches:  e.wayResolved,
		EmptyWays:   e.emptyWays,
	}
}

// Export writes every recorded point to s
func (e *Extractor) Export(s sink.Sink) error {
	for _, p := range e.points {
		if err := s.Write(p); err != nil {
			return fmt.Errorf("export %s: %w", e.name, err)
		}
	}
	return nil
}
