package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/points"
)

// TableOptions selects how a point table file is parsed.
type TableOptions struct {
	Delimiter rune   // CSV delimiter; inferred from the extension when 0
	Sheet     string // XLSX sheet name; first sheet when empty
}

// ReadTable parses a local CSV, TSV or XLSX file by extension.
func ReadTable(ctx context.Context, path string, opts TableOptions) (points.Table, error) {
	var (
		t   points.Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		t, err = ReadXLSX(path, XLSXOptions{SheetName: opts.Sheet})
	case ".csv", ".tsv", ".txt":
		delim := opts.Delimiter
		if delim == 0 && ext == ".tsv" {
			delim = '\t'
		}
		t, err = readCSVFile(ctx, path, delim)
	default:
		return points.Table{}, eris.Errorf("fetcher: unsupported table format %q", ext)
	}
	if err != nil {
		return points.Table{}, eris.Wrapf(err, "fetcher: read %s", path)
	}

	zap.L().Debug("fetcher: read table",
		zap.String("path", path),
		zap.Int("columns", len(t.Header)),
		zap.Int("rows", len(t.Rows)),
	)
	return t, nil
}

// isTableFile reports whether name has an extension ReadTable parses.
func isTableFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt", ".xlsx":
		return true
	}
	return false
}

func readCSVFile(ctx context.Context, path string, delim rune) (points.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return points.Table{}, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(ctx, f, CSVOptions{Delimiter: delim, Comment: '#'})
}
