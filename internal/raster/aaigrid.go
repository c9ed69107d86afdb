package raster

import (
	"bufio"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fieldmap/internal/geo"
)

// sidecar carries the metadata an ASCII grid header cannot hold exactly.
type sidecar struct {
	CRS        string  `yaml:"crs"`
	OriginX    float64 `yaml:"origin_x"`
	OriginY    float64 `yaml:"origin_y"`
	Resolution float64 `yaml:"resolution"`
	NoData     string  `yaml:"nodata"`
	Rows       int     `yaml:"rows"`
	Cols       int     `yaml:"cols"`
}

func sidecarPath(path string) string { return path + ".aux.yaml" }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func encodeASCII(w io.Writer, f *Field) error {
	bw := bufio.NewWriter(w)
	ext := f.Extent()
	header := [][2]string{
		{"ncols", strconv.Itoa(f.Cols)},
		{"nrows", strconv.Itoa(f.Rows)},
		{"xllcorner", formatFloat(ext.XMin)},
		{"yllcorner", formatFloat(ext.YMin)},
		{"cellsize", formatFloat(f.Resolution)},
		{"NODATA_value", formatFloat(f.NoData)},
	}
	for _, h := range header {
		if _, err := bw.WriteString(h[0] + strings.Repeat(" ", 14-len(h[0])) + h[1] + "\n"); err != nil {
			return eris.Wrap(err, "raster: write ascii header")
		}
	}

	buf := make([]byte, 0, 32)
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			buf = buf[:0]
			if c > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, f.At(r, c), 'g', -1, 64)
			if _, err := bw.Write(buf); err != nil {
				return eris.Wrap(err, "raster: write ascii row")
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return eris.Wrap(err, "raster: write ascii row")
		}
	}
	if err := bw.Flush(); err != nil {
		return eris.Wrap(err, "raster: flush ascii grid")
	}
	return nil
}

func decodeASCII(r io.Reader) (*Field, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<20)
	sc.Split(bufio.ScanWords)

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	hdr := make(map[string]string)
	var first string
	for {
		tok, ok := next()
		if !ok {
			return nil, eris.New("raster: truncated ascii grid header")
		}
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			first = tok
			break
		}
		key := strings.ToLower(tok)
		val, ok := next()
		if !ok {
			return nil, eris.Errorf("raster: missing value for %q", tok)
		}
		hdr[key] = val
	}

	cols, err := headerInt(hdr, "ncols")
	if err != nil {
		return nil, err
	}
	rows, err := headerInt(hdr, "nrows")
	if err != nil {
		return nil, err
	}
	res, err := headerFloat(hdr, "cellsize")
	if err != nil {
		return nil, err
	}
	var xll, yll float64
	if _, ok := hdr["xllcenter"]; ok {
		if xll, err = headerFloat(hdr, "xllcenter"); err != nil {
			return nil, err
		}
		if yll, err = headerFloat(hdr, "yllcenter"); err != nil {
			return nil, err
		}
		xll -= res / 2
		yll -= res / 2
	} else {
		if xll, err = headerFloat(hdr, "xllcorner"); err != nil {
			return nil, err
		}
		if yll, err = headerFloat(hdr, "yllcorner"); err != nil {
			return nil, err
		}
	}
	nodata := math.NaN()
	if _, ok := hdr["nodata_value"]; ok {
		if nodata, err = headerFloat(hdr, "nodata_value"); err != nil {
			return nil, err
		}
	}
	if rows <= 0 || cols <= 0 || rows*cols > math.MaxInt32 {
		return nil, eris.Errorf("raster: invalid ascii grid size %dx%d", cols, rows)
	}

	data := make([]float64, rows*cols)
	tok := first
	for i := range data {
		if i > 0 {
			var ok bool
			if tok, ok = next(); !ok {
				return nil, eris.Errorf("raster: ascii grid has %d values, expected %d", i, len(data))
			}
		}
		if data[i], err = strconv.ParseFloat(tok, 64); err != nil {
			return nil, eris.Wrapf(err, "raster: parse cell %d", i)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "raster: scan ascii grid")
	}

	return &Field{
		Data:       data,
		Rows:       rows,
		Cols:       cols,
		NoData:     nodata,
		Origin:     geo.Coord{X: xll, Y: yll + float64(rows)*res},
		Resolution: res,
	}, nil
}

func headerInt(hdr map[string]string, key string) (int, error) {
	s, ok := hdr[key]
	if !ok {
		return 0, eris.Errorf("raster: ascii grid header is missing %s", key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Wrapf(err, "raster: parse %s", key)
	}
	return n, nil
}

func headerFloat(hdr map[string]string, key string) (float64, error) {
	s, ok := hdr[key]
	if !ok {
		return 0, eris.Errorf("raster: ascii grid header is missing %s", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "raster: parse %s", key)
	}
	return v, nil
}

func writeSidecar(path string, f *Field) error {
	meta := sidecar{
		CRS:        f.CRS,
		OriginX:    f.Origin.X,
		OriginY:    f.Origin.Y,
		Resolution: f.Resolution,
		NoData:     formatFloat(f.NoData),
		Rows:       f.Rows,
		Cols:       f.Cols,
	}
	return writeAtomic(sidecarPath(path), func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(&meta); err != nil {
			return eris.Wrap(err, "raster: encode sidecar")
		}
		if err := enc.Close(); err != nil {
			return eris.Wrap(err, "raster: close sidecar encoder")
		}
		return nil
	})
}

// applySidecar overrides the header-derived georeferencing with the exact
// values from the sidecar, when one exists.
func applySidecar(path string, f *Field) error {
	raw, err := os.ReadFile(sidecarPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "raster: read sidecar")
	}
	var meta sidecar
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return eris.Wrap(err, "raster: parse sidecar")
	}
	if meta.Rows != f.Rows || meta.Cols != f.Cols {
		return eris.Errorf("raster: sidecar describes a %dx%d grid, file holds %dx%d", meta.Rows, meta.Cols, f.Rows, f.Cols)
	}
	nodata, err := strconv.ParseFloat(meta.NoData, 64)
	if err != nil {
		return eris.Wrapf(err, "raster: parse sidecar nodata %q", meta.NoData)
	}
	f.CRS = meta.CRS
	f.Origin = geo.Coord{X: meta.OriginX, Y: meta.OriginY}
	f.Resolution = meta.Resolution
	f.NoData = nodata
	return nil
}
