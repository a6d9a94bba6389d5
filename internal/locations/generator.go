// Package locations loads binary point datasets and draws random locations
// from them. It is the read side of the files written by the generate
// command.
package locations

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/wegman-software/geoplaces/internal/geo"
	"github.com/wegman-software/geoplaces/internal/sink"
)

// DefaultDataset is used when an unknown dataset is requested
const DefaultDataset = "world"

// ErrNoDataset is returned when neither the requested nor the default
// dataset has any points
var ErrNoDataset = errors.New("no points available")

// Generator picks locations from a named dataset
type Generator interface {
	Sample(dataset string) (geo.Point, error)
}

// Datafile is a Generator over datasets loaded from point files
type Datafile struct {
	datasets map[string][]geo.Point

	mu  sync.Mutex
	rng *rand.Rand
}

// Load reads every dataset file; datasets maps names to paths
func Load(datasets map[string]string) (*Datafile, error) {
	d := &Datafile{
		datasets: make(map[string][]geo.Point, len(datasets)),
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
	for name, path := range datasets {
		points, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", name, err)
		}
		d.datasets[name] = points
	}
	return d, nil
}

// NewDatafile wraps already decoded datasets
func NewDatafile(datasets map[string][]geo.Point, seed int64) *Datafile {
	return &Datafile{datasets: datasets, rng: rand.New(rand.NewSource(seed))}
}

// LoadFile maps a point file read-only and decodes its records
func LoadFile(path string) ([]geo.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// an empty file cannot be mapped
	if info.Size() == 0 {
		return []geo.Point{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}
	defer m.Unmap()

	return sink.DecodePoints(m)
}

// Names returns the loaded dataset names, sorted
func (d *Datafile) Names() []string {
	names := make([]string, 0, len(d.datasets))
	for name := range d.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Points returns the decoded points of a dataset
func (d *Datafile) Points(dataset string) []geo.Point {
	return d.datasets[dataset]
}

// Len returns the number of points in a dataset
func (d *Datafile) Len(dataset string) int {
	return len(d.datasets[dataset])
}

// Sample draws a uniformly random point from dataset, falling back to the
// default dataset when the name is unknown
func (d *Datafile) Sample(dataset string) (geo.Point, error) {
	points, ok := d.datasets[dataset]
	if !ok {
		points = d.datasets[DefaultDataset]
	}
	if len(points) == 0 {
		return geo.Point{}, fmt.Errorf("dataset %q: %w", dataset, ErrNoDataset)
	}

	d.mu.Lock()
	i := d.rng.Intn(len(points))
	d.mu.Unlock()
	return points[i], nil
}

// Mock always returns the same point
type Mock struct {
	Point geo.Point
}

// NewMock returns a mock generator at the default test location
func NewMock() *Mock {
	return &Mock{Point: geo.Point{Lat: 30, Lon: 98}}
}

func (m *Mock) Sample(string) (geo.Point, error) {
	return m.Point, nil
}
