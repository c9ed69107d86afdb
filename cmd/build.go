package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fieldmap/internal/pipeline"
	"github.com/sells-group/fieldmap/internal/store"
)

var buildCmd = &cobra.Command{
	Use:   "build <input>",
	Short: "Build a raster field from a point table",
	Long:  "Reads a CSV, TSV or XLSX point table (local path, http(s) or ftp URL, optionally zipped), bins it onto a grid, interpolates it and writes the raster.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fc := fieldConfig(cmd)
		params, err := paramsFromConfig(fc)
		if err != nil {
			return eris.Wrap(err, "build")
		}
		outDir, _ := cmd.Flags().GetString("out")
		out, err := outputFromConfig(cfg.Output, outDir)
		if err != nil {
			return eris.Wrap(err, "build")
		}

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = datasetName(args[0])
		}
		sheet, _ := cmd.Flags().GetString("sheet")

		d, err := loadDataset(ctx, args[0], fc.Attribute, sheet)
		if err != nil {
			return eris.Wrap(err, "build")
		}

		var st store.Store
		if noRecord, _ := cmd.Flags().GetBool("no-record"); !noRecord {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		runner := pipeline.NewRunner(st, out)
		prod, err := runner.Build(ctx, pipeline.Job{Name: name, Source: args[0], Dataset: d, Params: params})
		if err != nil {
			return eris.Wrap(err, "build")
		}
		printProduct(os.Stdout, prod)

		if k, _ := cmd.Flags().GetInt("classes"); k > 0 {
			classified, err := runner.Classify(ctx, name, prod.Path, prod.Build.Field, k, cfg.Classify.MaxSample)
			if err != nil {
				return eris.Wrap(err, "build classify")
			}
			printProduct(os.Stdout, classified)
		}
		return nil
	},
}

func init() {
	addFieldFlags(buildCmd)
	buildCmd.Flags().String("name", "", "output name (default: input file name)")
	buildCmd.Flags().String("out", "", "output directory (default from config)")
	buildCmd.Flags().Int("classes", 0, "also classify the field into this many natural-breaks classes")
	buildCmd.Flags().Bool("no-record", false, "do not record the run in the catalog")
	rootCmd.AddCommand(buildCmd)
}
