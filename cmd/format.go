package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sells-group/fieldmap/internal/pipeline"
	"github.com/sells-group/fieldmap/internal/raster"
	"github.com/sells-group/fieldmap/internal/store"
)

// printProduct writes a short summary of a written raster to w.
func printProduct(out io.Writer, p *pipeline.Product) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if p.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", p.RunID)
	}
	_, _ = fmt.Fprintf(w, "Raster:\t%s\n", p.Path)
	if p.ASCIIPath != "" {
		_, _ = fmt.Fprintf(w, "ASCII grid:\t%s\n", p.ASCIIPath)
	}
	if b := p.Build; b != nil {
		_, _ = fmt.Fprintf(w, "Grid:\t%d rows x %d cols @ %s\n", b.Spec.NRow, b.Spec.NCol, formatNum(b.Spec.Resolution))
		_, _ = fmt.Fprintf(w, "Samples:\t%d binned, %d outside extent\n", b.Binned, b.Outliers)
		_, _ = fmt.Fprintf(w, "Cells:\t%d valid, %d nodata\n", b.Stats.Valid, b.Unfilled)
	}
	if c := p.Classify; c != nil {
		_, _ = fmt.Fprintf(w, "Classes:\t%d\n", c.Breaks.Classes())
		_, _ = fmt.Fprintf(w, "Breaks:\t%s\n", formatBreaks(c.Breaks))
		_, _ = fmt.Fprintf(w, "GVF:\t%.4f\n", c.GVF)
	}
	_ = w.Flush()
}

// printFieldInfo writes the georeferencing and statistics of f to w.
func printFieldInfo(out io.Writer, path string, f *raster.Field) {
	e := f.Extent()
	s := f.Stats()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "File:\t%s\n", path)
	_, _ = fmt.Fprintf(w, "Size:\t%d rows x %d cols\n", f.Rows, f.Cols)
	_, _ = fmt.Fprintf(w, "Resolution:\t%s\n", formatNum(f.Resolution))
	_, _ = fmt.Fprintf(w, "Extent:\t%s, %s - %s, %s\n", formatNum(e.XMin), formatNum(e.YMin), formatNum(e.XMax), formatNum(e.YMax))
	_, _ = fmt.Fprintf(w, "CRS:\t%s\n", orDash(f.CRS))
	_, _ = fmt.Fprintf(w, "NoData:\t%s\n", formatNum(f.NoData))
	_, _ = fmt.Fprintf(w, "Valid cells:\t%d of %d\n", s.Valid, s.Cells)
	if s.Valid > 0 {
		_, _ = fmt.Fprintf(w, "Min / Max:\t%s / %s\n", formatNum(s.Min), formatNum(s.Max))
		_, _ = fmt.Fprintf(w, "Mean / StdDev:\t%s / %s\n", formatNum(s.Mean), formatNum(s.StdDev))
	}
	_ = w.Flush()
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tNAME\tMETHOD\tSTATUS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Millisecond).String()

		name := r.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Kind,
			name,
			orDash(r.Method),
			r.Status,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatBreaks(b []float64) string {
	s := "["
	for i, v := range b {
		if i > 0 {
			s += ", "
		}
		s += formatNum(v)
	}
	return s + "]"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
