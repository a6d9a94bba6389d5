package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/geoplaces/internal/config"
	"github.com/wegman-software/geoplaces/internal/logger"
	"github.com/wegman-software/geoplaces/internal/osmsource"
	"github.com/wegman-software/geoplaces/internal/pipeline"
)

var (
	bboxStr     string
	keepRate    float64
	sampleCount int
)

var generateCmd = &cobra.Command{
	Use:   "generate <input.osm.pbf>",
	Short: "Generate point datasets from a PBF file",
	Long: `Scan an OSM PBF file and write the point datasets described by the job.

The input is scanned two times, or three when boundary outputs are
configured:
  1. find       matching nodes and ways, highways, boundary relations
  2. resolve    first nodes of matching ways, road nodes, boundary ways
  3. boundary   boundary way nodes

Without --job the McDonald's dataset (mcdonalds.dat) and an unfiltered
road sample (roads.dat) are written. Every output is a flat sequence of
8 byte records: float32 latitude, float32 longitude, little endian.`,
	Args: cobra.ExactArgs(1),
	Run:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&cfg.JobFile, "job", "c", "", "YAML job file (datasets, boundaries, regions)")
	generateCmd.Flags().Int64Var(&cfg.ExpectedNodes, "expected-nodes", 0, "Node count of the input, used for progress ETA")
	generateCmd.Flags().Int64Var(&cfg.Seed, "seed", 0, "Random seed for road sampling (0 = from clock)")
	generateCmd.Flags().Float64Var(&keepRate, "keep-rate", 0, "Override the job's highway keep rate")
	generateCmd.Flags().IntVar(&sampleCount, "samples", 0, "Override the job's road sample count")
	generateCmd.Flags().BoolVar(&cfg.DebugText, "debug-text", false, "Also write lat,lon text files next to each output")
	generateCmd.Flags().StringVar(&bboxStr, "bbox", "", "Only export points inside minlon,minlat,maxlon,maxlat")
	generateCmd.Flags().DurationVar(&cfg.ProgressInterval, "progress-interval", cfg.ProgressInterval, "Interval for pass progress logging, 0 disables")
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg.InputFile = args[0]
	log := logger.Get()

	if cfg.JobFile != "" {
		job, err := config.LoadJob(cfg.JobFile)
		if err != nil {
			exitWithError("failed to load job", err)
		}
		cfg.Job = job
	}
	if cfg.Job.Roads != nil {
		if cmd.Flags().Changed("keep-rate") {
			cfg.Job.Roads.KeepRate = keepRate
		}
		if cmd.Flags().Changed("samples") {
			cfg.Job.Roads.SampleCount = sampleCount
		}
	}

	bbox, err := config.ParseBBox(bboxStr)
	if err != nil {
		exitWithError("invalid bbox", err)
	}
	cfg.BBox = bbox

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	log.Info("Starting generation",
		zap.String("input", cfg.InputFile),
		zap.String("output", cfg.OutputDir),
		zap.Int("workers", cfg.Workers),
		zap.Int("datasets", len(cfg.Job.Datasets)),
		zap.Bool("roads", cfg.Job.Roads != nil),
		zap.Bool("boundaries", cfg.Job.NeedsBoundaries()),
	)

	src, err := osmsource.NewPBFSource(cfg.InputFile, cfg.Workers, cfg.ExpectedNodes, cfg.ProgressInterval)
	if err != nil {
		exitWithError("failed to open input", err)
	}

	coord, err := pipeline.NewCoordinator(cfg, src)
	if err != nil {
		exitWithError("failed to create pipeline", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := coord.Run(ctx)
	if err != nil {
		exitWithError("generation failed", err)
	}

	for _, o := range stats.Outputs {
		log.Info("Output",
			zap.String("name", o.Name),
			zap.String("path", o.Path),
			zap.Int64("points", o.Points),
		)
	}
	log.Info("Generation complete",
		zap.Duration("duration", time.Since(start).Round(time.Second)),
		zap.Int("passes", len(stats.Passes)),
		zap.Int("roads_kept", stats.Roads.RoadsKept),
		zap.Uint64("road_km", stats.Roads.TotalKm),
		zap.Int64("points_written", stats.TotalPoints()),
	)
}
