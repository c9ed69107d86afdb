package main

import (
	"encoding/json"
	"math"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/raster"
)

// fieldInfo is the JSON form of info output.
type fieldInfo struct {
	Path       string       `json:"path"`
	Rows       int          `json:"rows"`
	Cols       int          `json:"cols"`
	Resolution float64      `json:"resolution"`
	Extent     geo.Extent   `json:"extent"`
	CRS        string       `json:"crs"`
	NoData     *float64     `json:"nodata"`
	Stats      raster.Stats `json:"stats"`
}

func newFieldInfo(path string, f *raster.Field) fieldInfo {
	info := fieldInfo{
		Path:       path,
		Rows:       f.Rows,
		Cols:       f.Cols,
		Resolution: f.Resolution,
		Extent:     f.Extent(),
		CRS:        f.CRS,
		Stats:      f.Stats(),
	}
	if nd := f.NoData; !math.IsNaN(nd) {
		info.NoData = &nd
	}
	return info
}

var infoCmd = &cobra.Command{
	Use:   "info <raster>",
	Short: "Show georeferencing and statistics of a raster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := raster.Read(args[0])
		if err != nil {
			return eris.Wrap(err, "info")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(newFieldInfo(args[0], f))
		}
		printFieldInfo(os.Stdout, args[0], f)
		return nil
	},
}

func init() {
	infoCmd.Flags().Bool("json", false, "print as JSON")
	rootCmd.AddCommand(infoCmd)
}
