package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/geoplaces/internal/geo"
	"github.com/wegman-software/geoplaces/internal/locations"
	"github.com/wegman-software/geoplaces/internal/logger"
)

var (
	drawCount   int
	drawDataset string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.dat>...",
	Short: "Report the contents of binary point datasets",
	Long: `Load binary point files the way downstream consumers do and report the
number of points and bounding box of each. Datasets are named after their
file (world.dat is "world"); unknown names fall back to "world".

With --draw, random points are drawn from --dataset and printed as
lat,lon lines.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().IntVar(&drawCount, "draw", 0, "Number of random points to print")
	inspectCmd.Flags().StringVar(&drawDataset, "dataset", locations.DefaultDataset, "Dataset to draw from")
}

// datasetName derives a dataset name from a file path
func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runInspect(cmd *cobra.Command, args []string) {
	log := logger.Get()

	files := make(map[string]string, len(args))
	for _, path := range args {
		name := datasetName(path)
		if prev, ok := files[name]; ok {
			exitWithError(fmt.Sprintf("dataset %q given twice: %s and %s", name, prev, path), nil)
		}
		files[name] = path
	}

	gen, err := locations.Load(files)
	if err != nil {
		exitWithError("failed to load datasets", err)
	}

	for _, name := range gen.Names() {
		fields := []zap.Field{
			zap.String("dataset", name),
			zap.String("path", files[name]),
			zap.Int("points", gen.Len(name)),
		}
		if b, ok := bound(gen.Points(name)); ok {
			fields = append(fields,
				zap.Float64s("min", []float64{b.Min.Lat(), b.Min.Lon()}),
				zap.Float64s("max", []float64{b.Max.Lat(), b.Max.Lon()}),
			)
		}
		log.Info("Dataset", fields...)
	}

	for i := 0; i < drawCount; i++ {
		p, err := gen.Sample(drawDataset)
		if err != nil {
			exitWithError("failed to draw point", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g,%g\n", p.Lat, p.Lon)
	}
}

func bound(points []geo.Point) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Orb()
	}
	return mp.Bound(), true
}
