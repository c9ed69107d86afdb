package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/pipeline"
	"github.com/sells-group/fieldmap/internal/store"
)

var batchCmd = &cobra.Command{
	Use:   "batch [input...]",
	Short: "Build several raster fields concurrently",
	Long:  "Builds one field per input, or per job of a YAML manifest, with a bounded number of workers. The first failure cancels the remaining builds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		manifestPath, _ := cmd.Flags().GetString("manifest")
		m := &batchManifest{}
		if manifestPath != "" {
			var err error
			if m, err = loadManifest(manifestPath); err != nil {
				return err
			}
		}
		base := fieldConfig(cmd)
		sheet, _ := cmd.Flags().GetString("sheet")
		classes, _ := cmd.Flags().GetInt("classes")
		for _, in := range args {
			m.Jobs = append(m.Jobs, manifestJob{Name: datasetName(in), Input: in, Sheet: sheet, Classes: classes})
		}
		if len(m.Jobs) == 0 {
			return eris.New("batch: no inputs (pass files or --manifest)")
		}

		workers := cfg.Batch.Workers
		if m.Workers > 0 {
			workers = m.Workers
		}
		if cmd.Flags().Changed("workers") {
			workers, _ = cmd.Flags().GetInt("workers")
		}

		outDir, _ := cmd.Flags().GetString("out")
		out, err := outputFromConfig(cfg.Output, outDir)
		if err != nil {
			return eris.Wrap(err, "batch")
		}

		jobs := make([]pipeline.Job, 0, len(m.Jobs))
		for _, mj := range m.Jobs {
			fc := mj.fieldConfig(base)
			params, err := paramsFromConfig(fc)
			if err != nil {
				return eris.Wrapf(err, "batch: job %s", mj.Name)
			}
			d, err := loadDataset(ctx, mj.Input, fc.Attribute, mj.Sheet)
			if err != nil {
				return eris.Wrapf(err, "batch: job %s", mj.Name)
			}
			jobs = append(jobs, pipeline.Job{Name: mj.Name, Source: mj.Input, Dataset: d, Params: params})
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
		zap.L().Info("batch: starting", zap.Int("jobs", len(jobs)), zap.Int("workers", workers))
		products, err := runner.BuildAll(ctx, jobs, workers)
		if err != nil {
			return eris.Wrap(err, "batch")
		}

		for i, prod := range products {
			printProduct(os.Stdout, prod)
			if k := m.Jobs[i].Classes; k > 0 {
				classified, err := runner.Classify(ctx, prod.Name, prod.Path, prod.Build.Field, k, cfg.Classify.MaxSample)
				if err != nil {
					return eris.Wrapf(err, "batch: classify %s", prod.Name)
				}
				printProduct(os.Stdout, classified)
			}
		}
		zap.L().Info("batch: complete", zap.Int("fields", len(products)))
		return nil
	},
}

func init() {
	addFieldFlags(batchCmd)
	batchCmd.Flags().String("manifest", "", "YAML manifest listing the jobs")
	batchCmd.Flags().Int("workers", 2, "maximum concurrent builds (default from config)")
	batchCmd.Flags().String("out", "", "output directory (default from config)")
	batchCmd.Flags().Int("classes", 0, "also classify each positional input into this many classes")
	batchCmd.Flags().Bool("no-record", false, "do not record the runs in the catalog")
	rootCmd.AddCommand(batchCmd)
}
