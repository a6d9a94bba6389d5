// Package pipeline drives the passes over the input and exports every
// configured dataset.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/osm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/geoplaces/internal/boundary"
	"github.com/wegman-software/geoplaces/internal/config"
	"github.com/wegman-software/geoplaces/internal/extract"
	"github.com/wegman-software/geoplaces/internal/geo"
	"github.com/wegman-software/geoplaces/internal/logger"
	"github.com/wegman-software/geoplaces/internal/metrics"
	"github.com/wegman-software/geoplaces/internal/osmsource"
	"github.com/wegman-software/geoplaces/internal/roads"
	"github.com/wegman-software/geoplaces/internal/sink"
	"github.com/wegman-software/geoplaces/internal/tagfilter"
)

// Coordinator runs the scan passes and the export stage of one job
type Coordinator struct {
	cfg *config.Config
	src osmsource.Source

	extractors []*extract.Extractor
	datasets   []config.Dataset
	sampler    *roads.Sampler     // nil when the job has no roads
	resolver   *boundary.Resolver // nil when no output is boundary gated
	collector  *metrics.Collector
}

// NewCoordinator creates the processors the job needs
func NewCoordinator(cfg *config.Config, src osmsource.Source) (*Coordinator, error) {
	if cfg.Job == nil {
		return nil, fmt.Errorf("no job configured")
	}
	job := cfg.Job

	c := &Coordinator{
		cfg:       cfg,
		src:       src,
		datasets:  job.Datasets,
		collector: metrics.NewCollector(cfg.MetricsInterval, logger.Named("metrics")),
	}

	for _, d := range job.Datasets {
		filter := tagfilter.Key(d.Key)
		if d.Value != nil {
			filter = tagfilter.KeyValue(d.Key, *d.Value)
		}
		c.extractors = append(c.extractors, extract.New(d.Name, filter))
	}

	if job.Roads != nil {
		c.sampler = roads.NewSampler(roads.Options{
			KeepRate:    job.Roads.KeepRate,
			SampleCount: job.Roads.SampleCount,
			Seed:        cfg.Seed,
		})
	}

	if job.NeedsBoundaries() {
		var ids []osm.RelationID
		for _, id := range job.RelationIDs() {
			ids = append(ids, osm.RelationID(id))
		}
		c.resolver = boundary.NewResolver(ids...)
	}

	return c, nil
}

// passes returns the scans the job needs: two, or three when boundaries
// must be resolved
func (c *Coordinator) passes() []pass {
	withBoundaries := c.resolver != nil

	passes := []pass{
		{
			opts: osmsource.PassOptions{
				Name:          "find",
				SkipRelations: !withBoundaries,
			},
			handle: c.firstPass,
		},
		{
			opts: osmsource.PassOptions{
				Name:          "resolve",
				SkipWays:      !withBoundaries,
				SkipRelations: true,
			},
			handle: c.secondPass,
		},
	}

	if withBoundaries {
		passes = append(passes, pass{
			opts: osmsource.PassOptions{
				Name:          "boundary nodes",
				SkipWays:      true,
				SkipRelations: true,
			},
			handle: c.thirdPass,
		})
	}
	return passes
}

func (c *Coordinator) firstPass(obj osm.Object) error {
	for _, e := range c.extractors {
		e.FirstPass(obj)
	}
	if c.sampler != nil {
		c.sampler.FirstPass(obj)
	}
	if c.resolver != nil {
		return c.resolver.FindBoundaries(obj)
	}
	return nil
}

func (c *Coordinator) secondPass(obj osm.Object) error {
	for _, e := range c.extractors {
		e.SecondPass(obj)
	}
	if c.sampler != nil {
		c.sampler.SecondPass(obj)
	}
	if c.resolver != nil {
		c.resolver.FindNodeIDs(obj)
	}
	return nil
}

func (c *Coordinator) thirdPass(obj osm.Object) error {
	c.resolver.FindNodes(obj)
	return nil
}

// Run executes every pass, samples the road network and writes all outputs
func (c *Coordinator) Run(ctx context.Context) (*RunStats, error) {
	log := logger.Named("pipeline")
	stats := &RunStats{}

	if c.cfg.MetricsInterval > 0 {
		metricsCtx, cancelMetrics := context.WithCancel(ctx)
		defer cancelMetrics()

		go c.collector.Start(metricsCtx)
		log.Info("System metrics collection started",
			zap.Duration("interval", c.cfg.MetricsInterval))
	}

	passes := c.passes()
	for i, p := range passes {
		log.Info("Starting pass",
			zap.String("pass", p.opts.Name),
			zap.Int("number", i+1),
			zap.Int("of", len(passes)),
		)

		start := time.Now()
		s, err := c.src.Pass(ctx, p.opts, p.handle)
		if err != nil {
			return nil, fmt.Errorf("pass %q failed: %w", p.opts.Name, err)
		}

		ps := PassStats{
			Name:      p.opts.Name,
			Nodes:     s.Nodes,
			Ways:      s.Ways,
			Relations: s.Relations,
			Duration:  time.Since(start),
		}
		stats.Passes = append(stats.Passes, ps)

		log.Info("Pass complete",
			zap.String("pass", ps.Name),
			zap.Duration("duration", ps.Duration.Round(time.Millisecond)),
			zap.Int64("nodes", ps.Nodes),
			zap.Int64("ways", ps.Ways),
			zap.Int64("relations", ps.Relations),
		)
		c.logProcessors(log, i)
		c.collector.Log(p.opts.Name)
	}

	if c.sampler != nil {
		points, err := c.sampler.Sample()
		if err != nil {
			return nil, fmt.Errorf("road sampling failed: %w", err)
		}
		idx, err := c.sampler.Index()
		if err != nil {
			return nil, fmt.Errorf("road index failed: %w", err)
		}
		stats.Roads = RoadStats{
			HighwaysSeen: c.sampler.HighwaysSeen(),
			RoadsKept:    c.sampler.Roads(),
			TotalKm:      idx.Total / geo.UnitsPerKm,
			Points:       len(points),
			Dropped:      c.sampler.Dropped(),
		}
	}

	outputs, err := c.export(ctx)
	if err != nil {
		return nil, err
	}
	stats.Outputs = outputs
	c.collector.Log("export")

	return stats, nil
}

// logProcessors reports what the processors hold after pass i
func (c *Coordinator) logProcessors(log *zap.Logger, i int) {
	for _, e := range c.extractors {
		st := e.Stats()
		log.Info("Dataset",
			zap.String("name", e.Name()),
			zap.Stringer("filter", e.Filter()),
			zap.Int("points", e.Len()),
			zap.Int("pending_way_nodes", e.Pending()),
			zap.Int("empty_ways", st.EmptyWays),
		)
	}
	if c.sampler != nil {
		log.Info("Road network",
			zap.Int("highways", c.sampler.HighwaysSeen()),
			zap.Int("kept", c.sampler.Roads()),
			zap.Int("pending_nodes", c.sampler.PendingNodes()),
			zap.Int("resolved_nodes", c.sampler.ResolvedNodes()),
		)
	}
	if c.resolver != nil {
		st := c.resolver.Stats()
		log.Info("Boundaries",
			zap.Int("relations", st.Relations),
			zap.Int("ways", st.ResolvedWays),
			zap.Int("wanted_ways", st.WantedWays),
			zap.Int("nodes", st.ResolvedNodes),
			zap.Int("wanted_nodes", st.PendingNodes),
		)
		if i == 0 {
			log.Debug("Boundary relations found", zap.Strings("relations", c.resolver.Names()))
		}
	}
}

// outputs lists every file the job writes
func (c *Coordinator) outputs() []output {
	var outs []output

	for i, e := range c.extractors {
		d := c.datasets[i]
		outs = append(outs, output{
			name:   d.Name,
			file:   d.Output,
			format: d.Format,
			write:  e.Export,
		})
	}

	if c.sampler == nil {
		return outs
	}
	r := c.cfg.Job.Roads
	exportRoads := func(s sink.Sink) error {
		return c.sampler.Export(s)
	}

	if r.Output != "" {
		outs = append(outs, output{
			name:   "roads",
			file:   r.Output,
			format: r.Format,
			write:  exportRoads,
		})
	}

	for _, b := range r.Boundaries {
		f := c.resolver.Filter(osm.RelationID(b.Relation))
		outs = append(outs, output{
			name:    fmt.Sprintf("boundary %d (%s)", b.Relation, f.Name()),
			file:    b.Output,
			format:  r.Format,
			gated:   true,
			filters: []sink.Containment{f},
			write:   exportRoads,
		})
	}

	for _, reg := range r.Regions {
		filters := make([]sink.Containment, 0, len(reg.Relations))
		for _, id := range reg.Relations {
			filters = append(filters, c.resolver.Filter(osm.RelationID(id)))
		}
		outs = append(outs, output{
			name:    "region " + reg.Name,
			file:    reg.Output,
			format:  r.Format,
			gated:   true,
			filters: filters,
			write:   exportRoads,
		})
	}

	return outs
}

// export writes all outputs concurrently. Point sets and filters are
// read-only by now; every output owns its sink chain.
func (c *Coordinator) export(ctx context.Context) ([]OutputStats, error) {
	outs := c.outputs()
	results := make([]OutputStats, len(outs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.Workers, 1))

	for i, o := range outs {
		g.Go(func() error {
			st, err := c.writeOutput(gctx, o)
			results[i] = st
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Coordinator) writeOutput(ctx context.Context, o output) (OutputStats, error) {
	path := c.cfg.OutputPath(o.file)
	st := OutputStats{Name: o.name, Path: path}

	if err := ctx.Err(); err != nil {
		return st, err
	}

	out, err := sink.Create(path, o.format, c.cfg.DebugText)
	if err != nil {
		return st, fmt.Errorf("output %s: %w", o.name, err)
	}

	counter := &sink.Counter{Next: out}
	var s sink.Sink = counter
	var gates []*sink.BoundaryGated
	if o.gated {
		g := sink.NewBoundaryGated(s, o.filters...)
		gates = append(gates, g)
		s = g
	}
	if c.cfg.BBox != nil && c.cfg.BBox.IsSet {
		g := sink.NewBoundaryGated(s, c.cfg.BBox)
		gates = append(gates, g)
		s = g
	}

	if err := o.write(s); err != nil {
		out.Close()
		return st, fmt.Errorf("output %s: %w", o.name, err)
	}
	if err := out.Close(); err != nil {
		return st, fmt.Errorf("output %s: failed to close %s: %w", o.name, path, err)
	}

	st.Points = counter.N
	for _, g := range gates {
		st.Dropped += g.Dropped()
	}

	logger.Named("pipeline").Info("Output written",
		zap.String("output", o.name),
		zap.String("path", path),
		zap.Int64("points", st.Points),
		zap.Int64("dropped", st.Dropped),
	)
	return st, nil
}
