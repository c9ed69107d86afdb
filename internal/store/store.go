// Package store keeps a catalog of build and classify runs: which input
// produced which raster, with what parameters, footprint and breaks.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// RunKind says what a run produced.
type RunKind string

const (
	RunKindBuild    RunKind = "build"
	RunKindClassify RunKind = "classify"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = eris.New("store: run not found")

// Run is one catalog entry.
type Run struct {
	ID         string    `json:"id"`
	Kind       RunKind   `json:"kind"`
	Name       string    `json:"name"`
	Source     string    `json:"source"`
	Output     string    `json:"output,omitempty"`
	Method     string    `json:"method,omitempty"`
	Resolution float64   `json:"resolution,omitempty"`
	NoData     float64   `json:"nodata"`
	CRS        string    `json:"crs,omitempty"`
	Footprint  []byte    `json:"footprint,omitempty"`
	Breaks     []float64 `json:"breaks,omitempty"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RunInput is what is known when a run starts.
type RunInput struct {
	Kind       RunKind
	Name       string
	Source     string
	Method     string
	Resolution float64
	NoData     float64
	CRS        string
}

// RunOutput is what a successful run produced.
type RunOutput struct {
	Output     string
	Resolution float64
	Footprint  []byte // EWKB polygon of the raster extent
	Breaks     []float64
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   RunKind   `json:"kind,omitempty"`
	Status RunStatus `json:"status,omitempty"`
	Name   string    `json:"name,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store defines the persistence interface for the run catalog.
type Store interface {
	CreateRun(ctx context.Context, in RunInput) (*Run, error)
	CompleteRun(ctx context.Context, id string, out RunOutput) error
	FailRun(ctx context.Context, id string, msg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the catalog for driver ("sqlite" or "postgres") and runs
// its migration.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func notFound(id string) error {
	return eris.Wrapf(ErrNotFound, "id %s", id)
}

// IsNotFound reports whether err means the run does not exist.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}
