package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/osm"
	"go.uber.org/zap"

	"github.com/wegman-software/geoplaces/internal/boundary"
	"github.com/wegman-software/geoplaces/internal/logger"
	"github.com/wegman-software/geoplaces/internal/osmsource"
)

// Discovery is the result of a boundary listing scan
type Discovery struct {
	Relations []*boundary.Relation
	// administrative relations with nested relation members, which no job
	// can use as a boundary
	Unsupported []osm.RelationID
}

// DiscoverBoundaries scans relations only and lists every administrative
// boundary, so that relation ids can be picked for a job file
func DiscoverBoundaries(ctx context.Context, src osmsource.Source) (*Discovery, error) {
	log := logger.Named("pipeline")
	r := boundary.NewResolver()
	d := &Discovery{}

	opts := osmsource.PassOptions{Name: "boundaries", SkipNodes: true, SkipWays: true}
	_, err := src.Pass(ctx, opts, func(obj osm.Object) error {
		err := r.FindBoundaries(obj)
		if errors.Is(err, boundary.ErrUnsupportedMember) {
			rel := obj.(*osm.Relation)
			d.Unsupported = append(d.Unsupported, rel.ID)
			log.Debug("Boundary cannot be used", zap.Int64("relation", int64(rel.ID)), zap.Error(err))
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pass %q failed: %w", opts.Name, err)
	}

	d.Relations = r.Relations()
	log.Info("Boundaries discovered",
		zap.Int("relations", len(d.Relations)),
		zap.Int("unsupported", len(d.Unsupported)),
	)
	return d, nil
}
