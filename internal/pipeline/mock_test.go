package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/fieldmap/internal/points"
	"github.com/sells-group/fieldmap/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, in store.RunInput) (*store.Run, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, id string, out store.RunOutput) error {
	args := m.Called(ctx, id, out)
	return args.Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, id string, msg string) error {
	args := m.Called(ctx, id, msg)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, id string) (*store.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]store.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Collaborator Mocks ---

type mockComparator struct {
	mock.Mock
}

func (m *mockComparator) Compare(ctx context.Context, pathA, pathB string, radius int, halving float64) (float64, error) {
	args := m.Called(ctx, pathA, pathB, radius, halving)
	return args.Get(0).(float64), args.Error(1)
}

type mockOutliner struct {
	mock.Mock
}

func (m *mockOutliner) Outline(ctx context.Context, d *points.Dataset, alpha *float64) (*geom.Polygon, error) {
	args := m.Called(ctx, d, alpha)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geom.Polygon), args.Error(1)
}
