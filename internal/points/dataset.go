// Package points turns raw tabular point samples into an immutable dataset
// of (x, y, value) triples ready for gridding.
package points

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/geo"
)

// MinSamples is the smallest number of valid rows a dataset may hold.
// Binning and interpolation are underdetermined below this.
const MinSamples = 3

// Table is raw tabular input: a header row followed by data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// TableFromRecords splits records into a header and data rows.
func TableFromRecords(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}
	return Table{Header: records[0], Rows: records[1:]}
}

// Sample is a single observation.
type Sample struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// Dataset is a validated, immutable set of samples for one attribute.
type Dataset struct {
	attribute string
	samples   []Sample
	dropped   int
}

// missingTokens are cell values treated as absent, in addition to blanks.
var missingTokens = map[string]bool{
	"nan": true, "-nan": true, "na": true, "n/a": true, "#n/a": true,
	"null": true, "none": true, "<na>": true,
}

func isMissing(cell string) bool {
	s := strings.TrimSpace(cell)
	return s == "" || missingTokens[strings.ToLower(s)]
}

// New validates a table and builds a Dataset for the named attribute column.
// The x and y columns are the header columns named "x" and "y" when present,
// otherwise the first and second columns. Rows with a missing cell in any
// header column are dropped, used or not. The table itself is never modified.
func New(t Table, attribute string) (*Dataset, error) {
	attribute = strings.TrimSpace(attribute)
	if attribute == "" {
		return nil, invalid("attribute name is empty", nil)
	}
	if len(t.Header) < 3 {
		return nil, invalid("table needs at least 3 columns (x, y, attribute)", nil)
	}

	header := make([]string, len(t.Header))
	for i, h := range t.Header {
		header[i] = strings.TrimSpace(h)
	}

	zi := indexOf(header, attribute, false)
	if zi < 0 {
		return nil, invalid("attribute column "+strconv.Quote(attribute)+" not found", nil)
	}
	xi, yi := indexOf(header, "x", true), indexOf(header, "y", true)
	if xi < 0 || yi < 0 {
		xi, yi = 0, 1
	}

	d := &Dataset{attribute: attribute, samples: make([]Sample, 0, len(t.Rows))}
	for n, row := range t.Rows {
		if rowMissing(row, len(header)) {
			d.dropped++
			continue
		}
		x, err := parseCell(row[xi])
		if err != nil {
			return nil, invalid("non-numeric x coordinate in row "+strconv.Itoa(n+1), err)
		}
		y, err := parseCell(row[yi])
		if err != nil {
			return nil, invalid("non-numeric y coordinate in row "+strconv.Itoa(n+1), err)
		}
		z, err := parseCell(row[zi])
		if err != nil {
			return nil, invalid("non-numeric "+attribute+" value in row "+strconv.Itoa(n+1), err)
		}
		d.samples = append(d.samples, Sample{X: x, Y: y, Value: z})
	}

	if len(d.samples) < MinSamples {
		return nil, invalid(
			"only "+strconv.Itoa(len(d.samples))+" valid rows, need at least "+strconv.Itoa(MinSamples), nil)
	}

	if d.dropped > 0 {
		zap.L().Debug("points: dropped rows with missing fields",
			zap.String("attribute", attribute),
			zap.Int("dropped", d.dropped),
			zap.Int("kept", len(d.samples)),
		)
	}
	return d, nil
}

// FromSamples builds a Dataset directly from samples.
func FromSamples(attribute string, samples []Sample) (*Dataset, error) {
	if len(samples) < MinSamples {
		return nil, invalid(
			"only "+strconv.Itoa(len(samples))+" samples, need at least "+strconv.Itoa(MinSamples), nil)
	}
	for i, s := range samples {
		if !finite(s.X) || !finite(s.Y) || !finite(s.Value) {
			return nil, invalid("sample "+strconv.Itoa(i)+" has a non-finite field", nil)
		}
	}
	cp := make([]Sample, len(samples))
	copy(cp, samples)
	return &Dataset{attribute: attribute, samples: cp}, nil
}

func indexOf(header []string, name string, fold bool) int {
	for i, h := range header {
		if h == name || (fold && strings.EqualFold(h, name)) {
			return i
		}
	}
	return -1
}

func rowMissing(row []string, width int) bool {
	if len(row) < width {
		return true
	}
	for _, cell := range row[:width] {
		if isMissing(cell) {
			return true
		}
	}
	return false
}

func parseCell(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, err
	}
	if !finite(v) {
		return 0, eris.Errorf("value %q is not finite", cell)
	}
	return v, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Attribute returns the attribute column name.
func (d *Dataset) Attribute() string { return d.attribute }

// Len returns the number of valid samples.
func (d *Dataset) Len() int { return len(d.samples) }

// Dropped returns the number of rows dropped for missing fields.
func (d *Dataset) Dropped() int { return d.dropped }

// Samples returns a copy of the samples.
func (d *Dataset) Samples() []Sample {
	cp := make([]Sample, len(d.samples))
	copy(cp, d.samples)
	return cp
}

// Each calls fn for every sample in input order.
func (d *Dataset) Each(fn func(Sample)) {
	for _, s := range d.samples {
		fn(s)
	}
}

// MultiPoint returns the sample locations as a go-geom MultiPoint.
func (d *Dataset) MultiPoint(srid int) *geom.MultiPoint {
	flat := make([]float64, 0, 2*len(d.samples))
	for _, s := range d.samples {
		flat = append(flat, s.X, s.Y)
	}
	return geom.NewMultiPointFlat(geom.XY, flat).SetSRID(srid)
}

// Bounds returns the bounding box of the sample locations.
func (d *Dataset) Bounds() (geo.Extent, error) {
	e := geo.ExtentFromBounds(d.MultiPoint(0).Bounds())
	if err := e.Validate(); err != nil {
		return geo.Extent{}, eris.Wrap(err, "points: derive bounds")
	}
	return e, nil
}
