// Package osmsource replays an OSM dataset as a stream of elements. Every
// call to Pass starts again from the beginning of the dataset.
package osmsource

import (
	"context"

	"github.com/paulmach/osm"
)

// Handler is called for every element of a pass. Returning an error aborts
// the pass.
type Handler func(obj osm.Object) error

// PassOptions selects the element kinds a pass needs. Skipped kinds are not
// decoded at all.
type PassOptions struct {
	Name          string
	SkipNodes     bool
	SkipWays      bool
	SkipRelations bool
}

// Stats counts the elements delivered during one pass
type Stats struct {
	Nodes     int64
	Ways      int64
	Relations int64
}

// Source is a replayable element stream
type Source interface {
	Pass(ctx context.Context, opts PassOptions, fn Handler) (Stats, error)
}

// dispatch counts obj and hands it to fn, honoring skip flags
func dispatch(obj osm.Object, opts PassOptions, stats *Stats, fn Handler) error {
	switch obj.(type) {
	case *osm.Node:
		if opts.SkipNodes {
			return nil
		}
		stats.Nodes++
	case *osm.Way:
		if opts.SkipWays {
			return nil
		}
		stats.Ways++
	case *osm.Relation:
		if opts.SkipRelations {
			return nil
		}
		stats.Relations++
	default:
		return nil
	}
	return fn(obj)
}
