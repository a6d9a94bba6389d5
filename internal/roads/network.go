// Package roads samples points along a road network with probability
// proportional to road length.
//
// The network is collected in two passes: the first keeps a random subset
// of highway ways and marks their node ids, the second resolves locations
// for the marked nodes only. Only the working set is ever held in memory.
package roads

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/paulmach/osm"

	"github.com/wegman-software/geoplaces/internal/geo"
)

var (
	// ErrUnresolvedNode means a node referenced by a kept road was never seen
	ErrUnresolvedNode = errors.New("road node has no resolved location")

	// ErrEmptyNetwork means the kept roads have zero total length
	ErrEmptyNetwork = errors.New("road network has zero total length")
)

// Network is the subsampled road network
type Network struct {
	keepRate float64
	rng      *rand.Rand

	roads   [][]osm.NodeID
	pending map[osm.NodeID]struct{}
	nodes   map[osm.NodeID]geo.Point

	seenHighways int
}

// NewNetwork creates an empty network keeping each highway with probability keepRate
func NewNetwork(keepRate float64, rng *rand.Rand) *Network {
	return &Network{
		keepRate: keepRate,
		rng:      rng,
		pending:  make(map[osm.NodeID]struct{}),
		nodes:    make(map[osm.NodeID]geo.Point),
	}
}

// AddRoad appends a road unconditionally and marks its nodes
func (n *Network) AddRoad(ids []osm.NodeID) {
	road := make([]osm.NodeID, len(ids))
	copy(road, ids)
	for _, id := range road {
		n.pending[id] = struct{}{}
	}
	n.roads = append(n.roads, road)
}

// FirstPass samples highway ways
func (n *Network) FirstPass(obj osm.Object) {
	w, ok := obj.(*osm.Way)
	if !ok {
		return
	}
	if !w.Tags.HasTag("highway") {
		return
	}
	n.seenHighways++
	if n.rng.Float64() >= n.keepRate {
		return
	}
	n.AddRoad(w.Nodes.NodeIDs())
}

// SecondPass resolves locations of marked nodes
func (n *Network) SecondPass(obj osm.Object) {
	node, ok := obj.(*osm.Node)
	if !ok {
		return
	}
	n.Resolve(node.ID, geo.Point{Lat: node.Lat, Lon: node.Lon})
}

// Resolve stores the location of id if a road needs it
func (n *Network) Resolve(id osm.NodeID, p geo.Point) {
	if _, ok := n.pending[id]; ok {
		n.nodes[id] = p
	}
}

// Roads returns the number of kept roads
func (n *Network) Roads() int {
	return len(n.roads)
}

// HighwaysSeen returns the number of highway ways offered in the first pass
func (n *Network) HighwaysSeen() int {
	return n.seenHighways
}

// PendingNodes returns the number of node ids marked by kept roads
func (n *Network) PendingNodes() int {
	return len(n.pending)
}

// ResolvedNodes returns the number of node locations stored
func (n *Network) ResolvedNodes() int {
	return len(n.nodes)
}

// location returns the resolved location of a road node
func (n *Network) location(id osm.NodeID) (geo.Point, error) {
	p, ok := n.nodes[id]
	if !ok {
		return geo.Point{}, fmt.Errorf("node %d: %w", id, ErrUnresolvedNode)
	}
	return p, nil
}

// BuildIndex computes the cumulative length table. Every segment endpoint
// must have been resolved.
func (n *Network) BuildIndex() (*LengthIndex, error) {
	idx := &LengthIndex{
		RoadStart: make([]uint64, 0, len(n.roads)),
		Segments:  make([][]uint64, 0, len(n.roads)),
	}

	for i, road := range n.roads {
		idx.RoadStart = append(idx.RoadStart, idx.Total)

		var segments []uint64
		if len(road) > 1 {
			segments = make([]uint64, 0, len(road)-1)
		}
		for j := 1; j < len(road); j++ {
			a, err := n.location(road[j-1])
			if err != nil {
				return nil, fmt.Errorf("road %d segment %d: %w", i, j-1, err)
			}
			b, err := n.location(road[j])
			if err != nil {
				return nil, fmt.Errorf("road %d segment %d: %w", i, j-1, err)
			}
			length := geo.Distance(a, b)
			segments = append(segments, length)
			idx.Total += length
		}
		idx.Segments = append(idx.Segments, segments)
	}

	return idx, nil
}
