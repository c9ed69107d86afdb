package main

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldmap/internal/config"
	"github.com/sells-group/fieldmap/internal/fetcher"
	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/interp"
	"github.com/sells-group/fieldmap/internal/pipeline"
	"github.com/sells-group/fieldmap/internal/points"
	"github.com/sells-group/fieldmap/internal/raster"
	"github.com/sells-group/fieldmap/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, cfg.Store.PoolConfig())
}

// addFieldFlags registers the flags that override cfg.Field.
func addFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("attribute", "", "attribute column to grid (default from config)")
	f.String("method", "", "interpolation method: nearest, linear, cubic or none (default from config)")
	f.Float64("res", 0, "cell size in map units (default: extent width / 1000)")
	f.String("ulc", "", "upper-left corner x,y of the raster extent")
	f.String("lrc", "", "lower-right corner x,y of the raster extent")
	f.Float64("nodata", 0, "nodata value (default from config)")
	f.String("crs", "", "CRS identifier recorded on the raster (default from config)")
	f.String("sheet", "", "XLSX sheet name (default: first sheet)")
}

// fieldConfig returns cfg.Field with any flags the user set applied.
func fieldConfig(cmd *cobra.Command) config.FieldConfig {
	fc := cfg.Field
	f := cmd.Flags()
	if f.Changed("attribute") {
		fc.Attribute, _ = f.GetString("attribute")
	}
	if f.Changed("method") {
		fc.Method, _ = f.GetString("method")
	}
	if f.Changed("res") {
		fc.Resolution, _ = f.GetFloat64("res")
	}
	if f.Changed("ulc") {
		fc.ULC, _ = f.GetString("ulc")
	}
	if f.Changed("lrc") {
		fc.LRC, _ = f.GetString("lrc")
	}
	if f.Changed("nodata") {
		fc.NoData, _ = f.GetFloat64("nodata")
	}
	if f.Changed("crs") {
		fc.CRS, _ = f.GetString("crs")
	}
	return fc
}

// paramsFromConfig converts field settings into build parameters.
func paramsFromConfig(fc config.FieldConfig) (pipeline.Params, error) {
	p := pipeline.Params{NoData: fc.NoData, CRS: fc.CRS}

	if strings.EqualFold(strings.TrimSpace(fc.Method), "none") {
		p.Plain = true
	} else {
		m, err := interp.ParseMethod(fc.Method)
		if err != nil {
			return pipeline.Params{}, err
		}
		p.Method = m
	}

	if fc.Resolution < 0 {
		return pipeline.Params{}, eris.Errorf("resolution must not be negative, got %g", fc.Resolution)
	}
	if fc.Resolution > 0 {
		res := fc.Resolution
		p.Resolution = &res
	}

	if fc.ULC != "" || fc.LRC != "" {
		if fc.ULC == "" || fc.LRC == "" {
			return pipeline.Params{}, eris.New("--ulc and --lrc must be given together")
		}
		ulc, err := geo.ParseCoord(fc.ULC)
		if err != nil {
			return pipeline.Params{}, err
		}
		lrc, err := geo.ParseCoord(fc.LRC)
		if err != nil {
			return pipeline.Params{}, err
		}
		p.Corners = &pipeline.Corners{ULC: ulc, LRC: lrc}
	}
	return p, nil
}

// outputFromConfig converts output settings, with an optional directory
// override.
func outputFromConfig(oc config.OutputConfig, dir string) (pipeline.Output, error) {
	format, err := raster.ParseFormat(oc.Format)
	if err != nil {
		return pipeline.Output{}, err
	}
	if dir == "" {
		dir = oc.Dir
	}
	return pipeline.Output{Dir: dir, Format: format, ASCII: oc.ASCII}, nil
}

// loadDataset resolves location (a path or an http, https or ftp URL,
// optionally zipped) and reads the named attribute from it.
func loadDataset(ctx context.Context, location, attribute, sheet string) (*points.Dataset, error) {
	if err := os.MkdirAll(cfg.Fetch.TempDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "create fetch temp dir")
	}
	resolver := fetcher.NewResolver(cfg.Fetch.HTTPOptions(), cfg.Fetch.FTPOptions())
	local, err := resolver.Resolve(ctx, location, cfg.Fetch.TempDir)
	if err != nil {
		return nil, err
	}

	t, err := fetcher.ReadTable(ctx, local, fetcher.TableOptions{Sheet: sheet})
	if err != nil {
		return nil, err
	}
	d, err := points.New(t, attribute)
	if err != nil {
		return nil, err
	}

	zap.L().Info("loaded point samples",
		zap.String("source", location),
		zap.String("attribute", attribute),
		zap.Int("samples", d.Len()),
		zap.Int("dropped", d.Dropped()),
	)
	return d, nil
}

// datasetName derives a run name from an input location.
func datasetName(location string) string {
	base := filepath.Base(location)
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		base = path.Base(u.Path)
	}
	if strings.EqualFold(filepath.Ext(base), ".zip") {
		base = base[:len(base)-len(".zip")]
	}
	if ext := filepath.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
