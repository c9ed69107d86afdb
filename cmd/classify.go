package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fieldmap/internal/pipeline"
	"github.com/sells-group/fieldmap/internal/raster"
	"github.com/sells-group/fieldmap/internal/store"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <raster>",
	Short: "Classify a raster field with natural breaks",
	Long:  "Computes Jenks natural-breaks thresholds over the valid cells of a GeoTIFF or ESRI ASCII grid and writes the classified raster, with nodata cells kept as nodata.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		field, err := raster.Read(args[0])
		if err != nil {
			return eris.Wrap(err, "classify")
		}

		k := cfg.Classify.Classes
		if cmd.Flags().Changed("classes") {
			k, _ = cmd.Flags().GetInt("classes")
		}
		maxSample := cfg.Classify.MaxSample
		if cmd.Flags().Changed("max-sample") {
			maxSample, _ = cmd.Flags().GetInt("max-sample")
		}

		outDir, _ := cmd.Flags().GetString("out")
		out, err := outputFromConfig(cfg.Output, outDir)
		if err != nil {
			return eris.Wrap(err, "classify")
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = datasetName(args[0])
		}

		var st store.Store
		if noRecord, _ := cmd.Flags().GetBool("no-record"); !noRecord {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		prod, err := pipeline.NewRunner(st, out).Classify(ctx, name, args[0], field, k, maxSample)
		if err != nil {
			return eris.Wrap(err, "classify")
		}
		printProduct(os.Stdout, prod)
		return nil
	},
}

func init() {
	classifyCmd.Flags().Int("classes", 5, "number of classes (default from config)")
	classifyCmd.Flags().Int("max-sample", 3000, "maximum values fed to the breaks optimiser (default from config)")
	classifyCmd.Flags().String("name", "", "output name; the classified raster is <name>_classes (default: input file name)")
	classifyCmd.Flags().String("out", "", "output directory (default from config)")
	classifyCmd.Flags().Bool("no-record", false, "do not record the run in the catalog")
	rootCmd.AddCommand(classifyCmd)
}
