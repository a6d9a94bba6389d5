package roads

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wegman-software/geoplaces/internal/geo"
	"github.com/wegman-software/geoplaces/internal/logger"
	"github.com/wegman-software/geoplaces/internal/sink"
)

// State is the sampler lifecycle stage
type State int

const (
	Collecting State = iota
	LengthIndexed
	Sampled
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case LengthIndexed:
		return "length-indexed"
	case Sampled:
		return "sampled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a Sampler
type Options struct {
	KeepRate    float64 // probability of keeping a highway way
	SampleCount int     // offsets drawn over the whole network
	Seed        int64   // 0 seeds from the clock
}

// Sampler draws length-weighted points from a subsampled road network
type Sampler struct {
	*Network

	opts  Options
	rng   *rand.Rand
	state State

	index   *LengthIndex
	points  []geo.Point
	dropped int

	// logs at most a handful of invalid samples
	invalid rate.Sometimes
}

// NewSampler creates a sampler in the Collecting state
func NewSampler(opts Options) *Sampler {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Sampler{
		Network: NewNetwork(opts.KeepRate, rng),
		opts:    opts,
		rng:     rng,
		state:   Collecting,
		invalid: rate.Sometimes{First: 10, Interval: 10 * time.Second},
	}
}

// State returns the current lifecycle stage
func (s *Sampler) State() State {
	return s.state
}

// Index builds the length index on first use
func (s *Sampler) Index() (*LengthIndex, error) {
	if s.index != nil {
		return s.index, nil
	}
	idx, err := s.BuildIndex()
	if err != nil {
		return nil, err
	}
	s.index = idx
	s.state = LengthIndexed

	logger.Named("roads").Info("Road length index built",
		zap.Int("roads", s.Roads()),
		zap.Int("nodes", s.ResolvedNodes()),
		zap.Uint64("total_km", idx.Total/geo.UnitsPerKm),
	)
	return idx, nil
}

// Sample computes the point set once; later calls return the same points
func (s *Sampler) Sample() ([]geo.Point, error) {
	if s.state == Sampled {
		return s.points, nil
	}

	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	if idx.Total == 0 {
		return nil, ErrEmptyNetwork
	}

	// |random| mod total, modulo bias included
	offsets := make([]uint64, s.opts.SampleCount)
	for i := range offsets {
		offsets[i] = uint64(s.rng.Int63()) % idx.Total
	}
	slices.Sort(offsets)

	points, err := s.sweep(idx, offsets)
	if err != nil {
		return nil, err
	}
	s.points = points
	s.state = Sampled

	logger.Named("roads").Info("Road points sampled",
		zap.Int("offsets", len(offsets)),
		zap.Int("points", len(points)),
		zap.Int("dropped", s.dropped),
	)
	return s.points, nil
}

// sweep maps sorted offsets to points along the network
func (s *Sampler) sweep(idx *LengthIndex, offsets []uint64) ([]geo.Point, error) {
	log := logger.Named("roads")
	points := make([]geo.Point, 0, len(offsets))
	c := newCursor(idx)

	for _, offset := range offsets {
		pos, ok := c.locate(offset)
		if !ok {
			s.drop(log, offset, pos, "road has no segments")
			continue
		}

		alpha := pos.Alpha()
		if !(alpha >= 0 && alpha <= 1) {
			s.drop(log, offset, pos, "interpolation fraction outside [0,1]")
			continue
		}

		road := s.roads[pos.Road]
		a, err := s.location(road[pos.Segment])
		if err != nil {
			return nil, err
		}
		b, err := s.location(road[pos.Segment+1])
		if err != nil {
			return nil, err
		}
		points = append(points, geo.Slerp(a, alpha, b))
	}
	return points, nil
}

func (s *Sampler) drop(log *zap.Logger, offset uint64, pos Position, reason string) {
	s.dropped++
	s.invalid.Do(func() {
		log.Warn("Dropping road sample",
			zap.String("reason", reason),
			zap.Uint64("offset", offset),
			zap.Int("road", pos.Road),
			zap.Int("segment", pos.Segment),
			zap.Uint64("remaining", pos.Remaining),
			zap.Uint64("segment_length", pos.Length),
		)
	})
}

// Dropped returns the number of offsets discarded while sampling
func (s *Sampler) Dropped() int {
	return s.dropped
}

// Points returns the sampled points; nil before Sample
func (s *Sampler) Points() []geo.Point {
	return s.points
}

// Export writes the sampled points to every sink
func (s *Sampler) Export(sinks ...sink.Sink) error {
	points, err := s.Sample()
	if err != nil {
		return err
	}
	for _, out := range sinks {
		for _, p := range points {
			if err := out.Write(p); err != nil {
				return fmt.Errorf("export road points: %w", err)
			}
		}
	}
	return nil
}
