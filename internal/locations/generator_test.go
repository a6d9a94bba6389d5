package locations

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wegman-software/geoplaces/internal/geo"
	"github.com/wegman-software/geoplaces/internal/sink"
)

func writePoints(t *testing.T, path string, points []geo.Point) {
	t.Helper()
	w, err := sink.CreateBinary(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range points {
		if err := w.Write(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAndSample(t *testing.T) {
	dir := t.TempDir()
	world := []geo.Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}}
	brand := []geo.Point{{Lat: 52.5, Lon: 13.25}}

	writePoints(t, filepath.Join(dir, "world.dat"), world)
	writePoints(t, filepath.Join(dir, "brand.dat"), brand)

	gen, err := Load(map[string]string{
		"world": filepath.Join(dir, "world.dat"),
		"brand": filepath.Join(dir, "brand.dat"),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if names := gen.Names(); len(names) != 2 || names[0] != "brand" || names[1] != "world" {
		t.Errorf("Names() = %v", names)
	}
	if gen.Len("world") != 3 {
		t.Errorf("Len(world) = %d, want 3", gen.Len("world"))
	}

	p, err := gen.Sample("brand")
	if err != nil {
		t.Fatal(err)
	}
	if p != brand[0] {
		t.Errorf("Sample(brand) = %+v, want %+v", p, brand[0])
	}

	seen := make(map[geo.Point]bool)
	for i := 0; i < 200; i++ {
		p, err := gen.Sample("unknown")
		if err != nil {
			t.Fatal(err)
		}
		seen[p] = true
	}
	for _, w := range world {
		if !seen[w] {
			t.Errorf("fallback never drew %+v", w)
		}
	}
	if len(seen) != len(world) {
		t.Errorf("fallback drew %d distinct points, want %d", len(seen), len(world))
	}
}

func TestSampleWithoutDefault(t *testing.T) {
	gen := NewDatafile(map[string][]geo.Point{"brand": {{Lat: 1, Lon: 1}}}, 1)
	if _, err := gen.Sample("other"); !errors.Is(err, ErrNoDataset) {
		t.Errorf("err = %v, want ErrNoDataset", err)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dat")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	points, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("got %d points, want 0", len(points))
	}
}

func TestLoadFileTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dat")
	if err := os.WriteFile(path, make([]byte, 13), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.Is(err, sink.ErrPartialRecord) {
		t.Errorf("err = %v, want ErrPartialRecord", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(map[string]string{"world": filepath.Join(t.TempDir(), "nope.dat")}); err == nil {
		t.Error("expected error for missing dataset file")
	}
}

func TestMock(t *testing.T) {
	var g Generator = NewMock()
	p, err := g.Sample("anything")
	if err != nil || p != (geo.Point{Lat: 30, Lon: 98}) {
		t.Errorf("Mock.Sample = %+v, %v", p, err)
	}
}
