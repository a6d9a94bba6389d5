package osmsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"

	"github.com/wegman-software/geoplaces/internal/logger"
)

// PBFSource replays a .osm.pbf file, reopening it for every pass
type PBFSource struct {
	path             string
	workers          int
	expectedNodes    int64
	progressInterval time.Duration
}

// NewPBFSource checks that path is readable and returns a source over it.
// expectedNodes only feeds the progress ETA and may be zero.
func NewPBFSource(path string, workers int, expectedNodes int64, progressInterval time.Duration) (*PBFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	f.Close()

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &PBFSource{
		path:             path,
		workers:          workers,
		expectedNodes:    expectedNodes,
		progressInterval: progressInterval,
	}, nil
}

// Pass implements Source
func (s *PBFSource) Pass(ctx context.Context, opts PassOptions, fn Handler) (Stats, error) {
	log := logger.Named("source")
	var stats Stats

	f, err := os.Open(s.path)
	if err != nil {
		return stats, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	scanner := osmpbf.New(ctx, f, s.workers)
	defer scanner.Close()
	scanner.SkipNodes = opts.SkipNodes
	scanner.SkipWays = opts.SkipWays
	scanner.SkipRelations = opts.SkipRelations

	var nodesSeen atomic.Int64
	if s.progressInterval > 0 {
		tickCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		tracker := NewProgressTracker(s.expectedNodes, opts.Name)
		ticker := NewProgressTicker(tickCtx, s.progressInterval, func() {
			p := tracker.Calculate(nodesSeen.Load())
			log.Info("Pass progress",
				zap.String("pass", p.Description),
				zap.Int64("nodes", p.Current),
				zap.String("percent", FormatPercent(p.Percentage)),
				zap.String("rate", FormatThroughput(p.Throughput)),
				zap.String("eta", FormatETA(p.ETA)),
			)
		})
		go ticker.Run()
	}

	for scanner.Scan() {
		obj := scanner.Object()
		if _, ok := obj.(*osm.Node); ok {
			nodesSeen.Add(1)
		}
		if err := dispatch(obj, opts, &stats, fn); err != nil {
			return stats, err
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return stats, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return stats, nil
}
