package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var shapeCmd = &cobra.Command{
	Use:   "shape <input>",
	Short: "Export a point table as a point shapefile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		attribute, _ := cmd.Flags().GetString("attribute")
		if attribute == "" {
			attribute = cfg.Field.Attribute
		}
		sheet, _ := cmd.Flags().GetString("sheet")

		d, err := loadDataset(ctx, args[0], attribute, sheet)
		if err != nil {
			return eris.Wrap(err, "shape")
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = filepath.Join(cfg.Output.Dir, "shapefiles", datasetName(args[0])+".shp")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return eris.Wrap(err, "shape: create output dir")
		}
		if err := d.WriteShapefile(out); err != nil {
			return eris.Wrap(err, "shape")
		}

		fmt.Printf("Wrote %d points to %s\n", d.Len(), out)
		return nil
	},
}

func init() {
	shapeCmd.Flags().String("attribute", "", "attribute column (default from config)")
	shapeCmd.Flags().String("sheet", "", "XLSX sheet name (default: first sheet)")
	shapeCmd.Flags().String("out", "", "output .shp path (default: <output.dir>/shapefiles/<name>.shp)")
	rootCmd.AddCommand(shapeCmd)
}
