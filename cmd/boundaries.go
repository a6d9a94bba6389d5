package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wegman-software/geoplaces/internal/osmsource"
	"github.com/wegman-software/geoplaces/internal/pipeline"
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries <input.osm.pbf>",
	Short: "List administrative boundary relations",
	Long: `Scan the relations of a PBF file and print every administrative boundary
as "id<TAB>name<TAB>ways". Use the ids in the boundaries and regions
sections of a job file.`,
	Args: cobra.ExactArgs(1),
	Run:  runBoundaries,
}

func init() {
	rootCmd.AddCommand(boundariesCmd)
}

func runBoundaries(cmd *cobra.Command, args []string) {
	src, err := osmsource.NewPBFSource(args[0], cfg.Workers, 0, 0)
	if err != nil {
		exitWithError("failed to open input", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := pipeline.DiscoverBoundaries(ctx, src)
	if err != nil {
		exitWithError("boundary scan failed", err)
	}

	out := cmd.OutOrStdout()
	for _, rel := range d.Relations {
		fmt.Fprintf(out, "%d\t%s\t%d\n", rel.ID, rel.Name, len(rel.Ways))
	}
}
