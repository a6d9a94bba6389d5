package pipeline

import (
	"context"
	"testing"

	"github.com/paulmach/osm"

	"github.com/wegman-software/geoplaces/internal/osmsource"
)

func TestDiscoverBoundaries(t *testing.T) {
	admin := func(name string) osm.Tags {
		return tags("type", "boundary", "boundary", "administrative", "name", name)
	}
	objs := append(squareWithRoad(),
		&osm.Relation{ID: 2000, Tags: admin("Other"), Members: osm.Members{
			{Type: osm.TypeWay, Ref: 200, Role: "outer"},
		}},
		&osm.Relation{ID: 3000, Tags: admin("Nested"), Members: osm.Members{
			{Type: osm.TypeRelation, Ref: 1000, Role: "outer"},
		}},
		&osm.Relation{ID: 4000, Tags: tags("type", "route"), Members: osm.Members{
			{Type: osm.TypeWay, Ref: 200, Role: "outer"},
		}},
	)
	src := osmsource.NewSliceSource(objs...)

	d, err := DiscoverBoundaries(context.Background(), src)
	if err != nil {
		t.Fatalf("DiscoverBoundaries: %v", err)
	}
	if src.Passes() != 1 {
		t.Errorf("passes = %d, want 1", src.Passes())
	}

	want := map[osm.RelationID]string{1000: "Square", 2000: "Other"}
	if len(d.Relations) != len(want) {
		t.Fatalf("got %d relations, want %d", len(d.Relations), len(want))
	}
	for _, rel := range d.Relations {
		if want[rel.ID] != rel.Name {
			t.Errorf("relation %d named %q, want %q", rel.ID, rel.Name, want[rel.ID])
		}
	}
	if len(d.Unsupported) != 1 || d.Unsupported[0] != 3000 {
		t.Errorf("Unsupported = %v, want [3000]", d.Unsupported)
	}
}
