package main

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/store"
)

// runView is the JSON form of a run: the footprint as a GeoJSON polygon and
// a NaN nodata as null.
type runView struct {
	store.Run
	NoData    *float64        `json:"nodata"`
	Footprint json.RawMessage `json:"footprint,omitempty"`
}

func newRunView(r store.Run) (runView, error) {
	v := runView{Run: r}
	if !math.IsNaN(r.NoData) {
		nd := r.NoData
		v.NoData = &nd
	}
	if len(r.Footprint) > 0 {
		e, srid, err := geo.DecodeFootprint(r.Footprint)
		if err != nil {
			return runView{}, err
		}
		data, err := geojson.Marshal(e.Polygon(srid))
		if err != nil {
			return runView{}, eris.Wrap(err, "encode footprint geojson")
		}
		v.Footprint = data
	}
	return v, nil
}

func newRunViews(runs []store.Run) ([]runView, error) {
	views := make([]runView, 0, len(runs))
	for _, r := range runs {
		v, err := newRunView(r)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
