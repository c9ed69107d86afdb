package raster

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Format is an on-disk raster encoding.
type Format string

const (
	// GTiff is a single-band, uncompressed float64 GeoTIFF.
	GTiff Format = "gtiff"
	// AAIGrid is an ESRI ASCII grid with a YAML metadata sidecar.
	AAIGrid Format = "aaigrid"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gtiff", "geotiff", "tif", "tiff":
		return GTiff, nil
	case "aaigrid", "asc", "ascii":
		return AAIGrid, nil
	}
	return "", eris.Errorf("raster: unknown format %q", s)
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return GTiff, nil
	case ".asc":
		return AAIGrid, nil
	}
	return "", eris.Errorf("raster: cannot infer format from %q", path)
}

// Ext returns the conventional file extension, including the dot.
func (f Format) Ext() string {
	if f == AAIGrid {
		return ".asc"
	}
	return ".tif"
}

// Write encodes field to path. The file is written to a temporary name in
// the same directory and renamed into place, so a failed write never leaves
// a partial raster behind.
func Write(field *Field, path string, format Format) error {
	if err := field.Validate(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	var encode func(io.Writer, *Field) error
	switch format {
	case GTiff:
		encode = encodeGeoTIFF
	case AAIGrid:
		encode = encodeASCII
	default:
		return &IOError{Op: "write", Path: path, Err: eris.Errorf("raster: unknown format %q", format)}
	}

	if err := writeAtomic(path, func(w io.Writer) error { return encode(w, field) }); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if format == AAIGrid {
		if err := writeSidecar(path, field); err != nil {
			_ = os.Remove(path)
			return &IOError{Op: "write", Path: sidecarPath(path), Err: err}
		}
	}

	zap.L().Debug("raster: wrote field",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("rows", field.Rows),
		zap.Int("cols", field.Cols),
	)
	return nil
}

// Read decodes the raster at path, choosing the codec by extension.
func Read(path string) (*Field, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: eris.Wrap(err, "raster: open")}
	}
	defer f.Close() //nolint:errcheck

	var field *Field
	switch format {
	case GTiff:
		field, err = decodeGeoTIFF(f)
	default:
		field, err = decodeASCII(bufio.NewReader(f))
		if err == nil {
			err = applySidecar(path, field)
		}
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	if err := field.Validate(); err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return field, nil
}

func writeAtomic(path string, fn func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrap(err, "raster: create temp file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, 1<<16)
	if err = fn(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return eris.Wrap(err, "raster: flush")
	}
	if err = tmp.Chmod(0o644); err != nil {
		return eris.Wrap(err, "raster: chmod")
	}
	if err = tmp.Close(); err != nil {
		return eris.Wrap(err, "raster: close")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrap(err, "raster: rename")
	}
	return nil
}
