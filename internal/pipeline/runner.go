package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/raster"
	"github.com/sells-group/fieldmap/internal/store"
)

// ClassesSuffix is appended to a field's name for its classified raster.
const ClassesSuffix = "_classes"

// Output says where rasters are written.
type Output struct {
	Dir    string
	Format raster.Format
	ASCII  bool // also write an ESRI ASCII grid next to a GeoTIFF
}

// Product is what a Runner wrote for one run.
type Product struct {
	RunID     string          `json:"run_id,omitempty"`
	Name      string          `json:"name"`
	Path      string          `json:"path"`
	ASCIIPath string          `json:"ascii_path,omitempty"`
	Build     *BuildResult    `json:"-"`
	Classify  *ClassifyResult `json:"-"`
}

// Runner builds or classifies fields, writes them to disk and records each
// run in the catalog. A nil store skips recording.
type Runner struct {
	store store.Store
	out   Output
}

// NewRunner creates a Runner writing to out.
func NewRunner(st store.Store, out Output) *Runner {
	return &Runner{store: st, out: out}
}

// Build builds job's field and writes it as job.Name.
func (r *Runner) Build(ctx context.Context, job Job) (*Product, error) {
	in := store.RunInput{
		Kind:   store.RunKindBuild,
		Name:   job.Name,
		Source: job.Source,
		Method: job.Params.MethodName(),
		NoData: job.Params.NoData,
		CRS:    job.Params.CRS,
	}
	if job.Params.Resolution != nil {
		in.Resolution = *job.Params.Resolution
	}

	prod := &Product{Name: job.Name}
	id, err := r.track(ctx, in, func() (store.RunOutput, error) {
		res, err := Build(ctx, job.Dataset, job.Params)
		if err != nil {
			return store.RunOutput{}, err
		}
		prod.Build = res
		if err := r.write(res.Field, prod); err != nil {
			return store.RunOutput{}, err
		}
		footprint, err := geo.Footprint(res.Field.Extent(), res.Field.CRS)
		if err != nil {
			return store.RunOutput{}, err
		}
		return store.RunOutput{Output: prod.Path, Resolution: res.Spec.Resolution, Footprint: footprint}, nil
	})
	prod.RunID = id
	if err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: built field",
		zap.String("name", job.Name),
		zap.String("path", prod.Path),
		zap.Int("rows", prod.Build.Spec.NRow),
		zap.Int("cols", prod.Build.Spec.NCol),
		zap.Int("outliers", prod.Build.Outliers),
		zap.Int("unfilled", prod.Build.Unfilled),
	)
	return prod, nil
}

// Classify classifies field into k classes and writes it as name plus
// ClassesSuffix.
func (r *Runner) Classify(ctx context.Context, name, source string, field *raster.Field, k, maxSample int) (*Product, error) {
	in := store.RunInput{
		Kind:       store.RunKindClassify,
		Name:       name,
		Source:     source,
		Method:     "natural_breaks",
		Resolution: field.Resolution,
		NoData:     field.NoData,
		CRS:        field.CRS,
	}

	prod := &Product{Name: name + ClassesSuffix}
	id, err := r.track(ctx, in, func() (store.RunOutput, error) {
		res, err := Classify(field, k, maxSample)
		if err != nil {
			return store.RunOutput{}, err
		}
		prod.Classify = res
		if err := r.write(res.Field, prod); err != nil {
			return store.RunOutput{}, err
		}
		footprint, err := geo.Footprint(res.Field.Extent(), res.Field.CRS)
		if err != nil {
			return store.RunOutput{}, err
		}
		return store.RunOutput{Output: prod.Path, Footprint: footprint, Breaks: res.Breaks}, nil
	})
	prod.RunID = id
	if err != nil {
		return nil, err
	}
	return prod, nil
}

func (r *Runner) write(field *raster.Field, prod *Product) error {
	if err := os.MkdirAll(r.out.Dir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create output dir %s", r.out.Dir)
	}
	prod.Path = filepath.Join(r.out.Dir, prod.Name+r.out.Format.Ext())
	if err := raster.Write(field, prod.Path, r.out.Format); err != nil {
		return err
	}
	if r.out.ASCII && r.out.Format != raster.AAIGrid {
		prod.ASCIIPath = filepath.Join(r.out.Dir, prod.Name+raster.AAIGrid.Ext())
		if err := raster.Write(field, prod.ASCIIPath, raster.AAIGrid); err != nil {
			return err
		}
	}
	return nil
}

// track records fn as a run. The run is marked failed with fn's error, which
// is returned unchanged.
func (r *Runner) track(ctx context.Context, in store.RunInput, fn func() (store.RunOutput, error)) (string, error) {
	if r.store == nil {
		_, err := fn()
		return "", err
	}

	run, err := r.store.CreateRun(ctx, in)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("kind", string(in.Kind)), zap.String("name", in.Name))

	start := time.Now()
	out, fnErr := fn()
	if fnErr != nil {
		log.Error("pipeline: run failed", zap.Duration("duration", time.Since(start)), zap.Error(fnErr))
		if failErr := r.store.FailRun(context.WithoutCancel(ctx), run.ID, fnErr.Error()); failErr != nil {
			log.Warn("pipeline: failed to record run failure", zap.Error(failErr))
		}
		return run.ID, fnErr
	}

	if err := r.store.CompleteRun(ctx, run.ID, out); err != nil {
		return run.ID, eris.Wrap(err, "pipeline: complete run")
	}
	log.Debug("pipeline: run complete", zap.Duration("duration", time.Since(start)))
	return run.ID, nil
}
