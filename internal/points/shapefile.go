package points

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// dbfNameLen is the dBASE field name limit.
const dbfNameLen = 10

// WriteShapefile writes the samples as a point shapefile with the attribute
// stored as a numeric DBF field.
func (d *Dataset) WriteShapefile(path string) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "points: create shapefile %s", path)
	}
	defer w.Close()

	name := d.attribute
	if len(name) > dbfNameLen {
		name = name[:dbfNameLen]
	}
	if err := w.SetFields([]shp.Field{shp.FloatField(name, 24, 10)}); err != nil {
		return eris.Wrap(err, "points: set shapefile fields")
	}

	for _, s := range d.samples {
		n := w.Write(&shp.Point{X: s.X, Y: s.Y})
		if err := w.WriteAttribute(int(n), 0, s.Value); err != nil {
			return eris.Wrapf(err, "points: write attribute for record %d", n)
		}
	}

	zap.L().Debug("points: wrote shapefile",
		zap.String("path", path),
		zap.Int("records", len(d.samples)),
	)
	return nil
}
