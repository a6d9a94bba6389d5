package osmsource

import (
	"context"

	"github.com/paulmach/osm"
)

// SliceSource replays an in-memory element list
type SliceSource struct {
	Objects []osm.Object
	passes  int
}

// NewSliceSource creates a source over the given elements
func NewSliceSource(objs ...osm.Object) *SliceSource {
	return &SliceSource{Objects: objs}
}

// Passes returns how many passes have been started
func (s *SliceSource) Passes() int {
	return s.passes
}

// Pass implements Source
func (s *SliceSource) Pass(ctx context.Context, opts PassOptions, fn Handler) (Stats, error) {
	s.passes++
	var stats Stats
	for _, obj := range s.Objects {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := dispatch(obj, opts, &stats, fn); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
