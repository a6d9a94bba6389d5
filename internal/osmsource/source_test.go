package osmsource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/osm"
)

func elements() []osm.Object {
	return []osm.Object{
		&osm.Node{ID: 1, Lat: 1, Lon: 1},
		&osm.Node{ID: 2, Lat: 2, Lon: 2},
		&osm.Way{ID: 10, Nodes: osm.WayNodes{{ID: 1}, {ID: 2}}},
		&osm.Relation{ID: 100},
	}
}

func TestSliceSourceReplays(t *testing.T) {
	src := NewSliceSource(elements()...)

	for pass := 1; pass <= 3; pass++ {
		var seen int
		stats, err := src.Pass(context.Background(), PassOptions{}, func(osm.Object) error {
			seen++
			return nil
		})
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if seen != 4 {
			t.Errorf("pass %d: saw %d elements, want 4", pass, seen)
		}
		if stats.Nodes != 2 || stats.Ways != 1 || stats.Relations != 1 {
			t.Errorf("pass %d: stats = %+v", pass, stats)
		}
	}

	if src.Passes() != 3 {
		t.Errorf("Passes() = %d, want 3", src.Passes())
	}
}

func TestSliceSourceSkips(t *testing.T) {
	src := NewSliceSource(elements()...)

	var kinds []osm.Type
	_, err := src.Pass(context.Background(), PassOptions{SkipWays: true, SkipRelations: true}, func(obj osm.Object) error {
		kinds = append(kinds, obj.ObjectID().Type())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(kinds) != 2 {
		t.Fatalf("got %d elements, want 2 nodes", len(kinds))
	}
	for _, k := range kinds {
		if k != osm.TypeNode {
			t.Errorf("unexpected kind %s", k)
		}
	}
}

func TestSliceSourceHandlerError(t *testing.T) {
	src := NewSliceSource(elements()...)
	boom := errors.New("boom")

	calls := 0
	_, err := src.Pass(context.Background(), PassOptions{}, func(osm.Object) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("handler called %d times after error, want 1", calls)
	}
}

func TestNewPBFSourceMissingFile(t *testing.T) {
	_, err := NewPBFSource(filepath.Join(t.TempDir(), "missing.osm.pbf"), 1, 0, 0)
	if err == nil {
		t.Error("expected error for missing input")
	}
}

func TestProgressCalculate(t *testing.T) {
	tracker := NewProgressTracker(1000, "pass 1")
	p := tracker.calculateAt(250, 10*time.Second)

	if p.Percentage != 25 {
		t.Errorf("Percentage = %f, want 25", p.Percentage)
	}
	if p.Throughput != 25 {
		t.Errorf("Throughput = %f, want 25", p.Throughput)
	}
	if p.ETA != 30*time.Second {
		t.Errorf("ETA = %v, want 30s", p.ETA)
	}

	unknown := NewProgressTracker(0, "pass 1").calculateAt(250, 10*time.Second)
	if unknown.Percentage != 0 || unknown.ETA != 0 {
		t.Errorf("unknown total should give no percentage or ETA, got %+v", unknown)
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatETA(0), "calculating..."},
		{FormatETA(45 * time.Second), "45s"},
		{FormatETA(2*time.Minute + 5*time.Second), "2m 5s"},
		{FormatETA(3*time.Hour + 4*time.Minute), "3h 4m 0s"},
		{FormatThroughput(500), "500/s"},
		{FormatThroughput(2500), "2.5K/s"},
		{FormatThroughput(3_200_000), "3.2M/s"},
		{FormatPercent(0), "?"},
		{FormatPercent(12.34), "12.3%"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
