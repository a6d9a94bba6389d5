// Package boundary reconstructs administrative boundaries from relations
// and answers point containment queries against them.
//
// Geometry is resolved over three passes: relations name their member ways,
// ways name their nodes, and nodes carry locations.
package boundary

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"go.uber.org/zap"

	"github.com/wegman-software/geoplaces/internal/geo"
	"github.com/wegman-software/geoplaces/internal/logger"
)

// ErrUnsupportedMember is returned for a relation used as an outer or inner
// member; nested boundary relations cannot be assembled.
var ErrUnsupportedMember = errors.New("unsupported boundary member")

// Relation is an administrative boundary relation
type Relation struct {
	ID   osm.RelationID
	Name string
	Ways []osm.WayID
}

// Resolver collects boundary geometry across passes
type Resolver struct {
	only map[osm.RelationID]bool // nil collects every boundary

	relations map[osm.RelationID]*Relation
	order     []osm.RelationID

	wantedWays map[osm.WayID]struct{}
	ways       map[osm.WayID][]osm.NodeID

	pending map[osm.NodeID]struct{}
	nodes   map[osm.NodeID]geo.Point
}

// NewResolver creates a resolver. When ids are given only those relations
// are collected; otherwise every administrative boundary is.
func NewResolver(ids ...osm.RelationID) *Resolver {
	r := &Resolver{
		relations:  make(map[osm.RelationID]*Relation),
		wantedWays: make(map[osm.WayID]struct{}),
		ways:       make(map[osm.WayID][]osm.NodeID),
		pending:    make(map[osm.NodeID]struct{}),
		nodes:      make(map[osm.NodeID]geo.Point),
	}
	if len(ids) > 0 {
		r.only = make(map[osm.RelationID]bool, len(ids))
		for _, id := range ids {
			r.only[id] = true
		}
	}
	return r
}

func isAdministrative(tags osm.Tags) bool {
	return tags.Find("boundary") == "administrative"
}

// FindBoundaries records boundary relations and their outer/inner ways
func (r *Resolver) FindBoundaries(obj osm.Object) error {
	rel, ok := obj.(*osm.Relation)
	if !ok || !isAdministrative(rel.Tags) {
		return nil
	}
	if r.only != nil && !r.only[rel.ID] {
		return nil
	}

	b := &Relation{ID: rel.ID, Name: rel.Tags.Find("name")}
	for _, m := range rel.Members {
		if m.Role != "outer" && m.Role != "inner" {
			continue
		}
		switch m.Type {
		case osm.TypeWay:
			id := osm.WayID(m.Ref)
			b.Ways = append(b.Ways, id)
			r.wantedWays[id] = struct{}{}
		case osm.TypeRelation:
			return fmt.Errorf("relation %d (%s) has relation %d as %s member: %w",
				rel.ID, b.Name, m.Ref, m.Role, ErrUnsupportedMember)
		}
	}

	if _, seen := r.relations[rel.ID]; !seen {
		r.order = append(r.order, rel.ID)
	}
	r.relations[rel.ID] = b
	return nil
}

// FindNodeIDs records the node lists of boundary ways
func (r *Resolver) FindNodeIDs(obj osm.Object) {
	w, ok := obj.(*osm.Way)
	if !ok {
		return
	}
	if _, wanted := r.wantedWays[w.ID]; !wanted {
		return
	}
	ids := w.Nodes.NodeIDs()
	r.ways[w.ID] = ids
	for _, id := range ids {
		r.pending[id] = struct{}{}
	}
}

// FindNodes resolves locations of boundary way nodes
func (r *Resolver) FindNodes(obj osm.Object) {
	n, ok := obj.(*osm.Node)
	if !ok {
		return
	}
	if _, wanted := r.pending[n.ID]; wanted {
		r.nodes[n.ID] = geo.Point{Lat: n.Lat, Lon: n.Lon}
	}
}

// Relations returns the collected boundaries in discovery order
func (r *Resolver) Relations() []*Relation {
	out := make([]*Relation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.relations[id])
	}
	return out
}

// Relation returns one collected boundary
func (r *Resolver) Relation(id osm.RelationID) (*Relation, bool) {
	b, ok := r.relations[id]
	return b, ok
}

// Names returns "id name" labels of the collected boundaries, used to
// discover relation ids for a job file
func (r *Resolver) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, fmt.Sprintf("%d %s", id, r.relations[id].Name))
	}
	return out
}

// Stats reports resolver sizes
type Stats struct {
	Relations     int
	WantedWays    int
	ResolvedWays  int
	PendingNodes  int
	ResolvedNodes int
}

func (r *Resolver) Stats() Stats {
	return Stats{
		Relations:     len(r.relations),
		WantedWays:    len(r.wantedWays),
		ResolvedWays:  len(r.ways),
		PendingNodes:  len(r.pending),
		ResolvedNodes: len(r.nodes),
	}
}

// Filter builds the containment filter of a relation. Ways are not stitched
// into rings; their segments form an unordered edge set, which the even-odd
// rule handles regardless of winding or order. Unknown or incompletely
// resolved relations yield an empty filter that contains nothing.
func (r *Resolver) Filter(id osm.RelationID) *Filter {
	log := logger.Named("boundary")

	rel, ok := r.relations[id]
	if !ok {
		log.Warn("Unknown boundary relation, filter will match nothing", zap.Int64("relation", int64(id)))
		return &Filter{relation: id}
	}

	var edges []geo.Edge
	for _, wayID := range rel.Ways {
		ids, ok := r.ways[wayID]
		if !ok {
			log.Warn("Boundary way not found, filter will match nothing",
				zap.Int64("relation", int64(id)),
				zap.String("name", rel.Name),
				zap.Int64("way", int64(wayID)),
			)
			return &Filter{relation: id, name: rel.Name}
		}
		for i := 1; i < len(ids); i++ {
			a, okA := r.nodes[ids[i-1]]
			b, okB := r.nodes[ids[i]]
			if !okA || !okB {
				log.Warn("Boundary node not found, filter will match nothing",
					zap.Int64("relation", int64(id)),
					zap.String("name", rel.Name),
					zap.Int64("way", int64(wayID)),
				)
				return &Filter{relation: id, name: rel.Name}
			}
			edges = append(edges, geo.Edge{A: a, B: b})
		}
	}

	return newFilter(id, rel.Name, edges)
}

// Filter is the containment predicate of one boundary
type Filter struct {
	relation osm.RelationID
	name     string
	edges    []geo.Edge // sorted by MinLon
	bound    orb.Bound
}

// NewFilter builds a filter directly from edges. The edges are copied.
func NewFilter(name string, edges []geo.Edge) *Filter {
	return newFilter(0, name, edges)
}

func newFilter(id osm.RelationID, name string, edges []geo.Edge) *Filter {
	f := &Filter{relation: id, name: name, edges: slices.Clone(edges)}
	if len(edges) == 0 {
		return f
	}

	sort.Slice(f.edges, func(i, j int) bool {
		return f.edges[i].MinLon() < f.edges[j].MinLon()
	})

	f.bound = orb.Bound{Min: f.edges[0].A.Orb(), Max: f.edges[0].A.Orb()}
	for _, e := range f.edges {
		f.bound = f.bound.Extend(e.A.Orb()).Extend(e.B.Orb())
	}
	return f
}

// Contains reports whether p lies inside the boundary
func (f *Filter) Contains(p geo.Point) bool {
	if len(f.edges) == 0 {
		return false
	}

	// Outside these limits no edge can be counted. North of the bound a
	// ring is crossed an even number of times, but an unclosed edge set
	// may not be, so that side is left to the full test.
	if p.Lon <= f.bound.Min.Lon() || p.Lon >= f.bound.Max.Lon() || p.Lat <= f.bound.Min.Lat() {
		return false
	}

	// edges starting at or east of p are skipped by the ray test anyway
	n := sort.Search(len(f.edges), func(i int) bool {
		return f.edges[i].MinLon() >= p.Lon
	})
	return geo.PointInPolygon(p, f.edges[:n])
}

// Empty reports whether the filter can never contain a point
func (f *Filter) Empty() bool {
	return len(f.edges) == 0
}

// Name returns the boundary's display name
func (f *Filter) Name() string {
	return f.name
}

// Relation returns the source relation id, 0 for filters built from edges
func (f *Filter) Relation() osm.RelationID {
	return f.relation
}

// Edges returns the number of edges
func (f *Filter) Edges() int {
	return len(f.edges)
}

// Bound returns the bounding box of all edges
func (f *Filter) Bound() orb.Bound {
	return f.bound
}
