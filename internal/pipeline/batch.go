package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fieldmap/internal/points"
)

// Job is one field to build.
type Job struct {
	Name    string
	Source  string
	Dataset *points.Dataset
	Params  Params
}

// BuildAll runs Build for every job with at most workers at once. Products
// are in job order; the first failure cancels the rest.
func (r *Runner) BuildAll(ctx context.Context, jobs []Job, workers int) ([]*Product, error) {
	products := make([]*Product, len(jobs))
	err := forEach(ctx, len(jobs), workers, func(gctx context.Context, i int) error {
		p, err := r.Build(gctx, jobs[i])
		if err != nil {
			return eris.Wrapf(err, "pipeline: build %s", jobs[i].Name)
		}
		products[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func forEach(ctx context.Context, n, workers int, fn func(context.Context, int) error) error {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
