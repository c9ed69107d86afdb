package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	body  string
	calls []string
}

func (s *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	s.calls = append(s.calls, url)
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func (s *stubFetcher) DownloadToFile(ctx context.Context, url string, path string) (int64, error) {
	rc, _ := s.Download(ctx, url)
	return copyToFile(path, rc)
}

func TestResolve_LocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y,dz\n"), 0o644))

	got, err := (&Resolver{}).Resolve(context.Background(), path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestResolve_Missing(t *testing.T) {
	_, err := (&Resolver{}).Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), t.TempDir())
	require.Error(t, err)
}

func TestResolve_Remote(t *testing.T) {
	httpStub := &stubFetcher{body: "x,y,dz\n0,0,1\n"}
	ftpStub := &stubFetcher{body: "x,y,dz\n"}
	r := &Resolver{HTTP: httpStub, FTP: ftpStub}
	dir := t.TempDir()

	got, err := r.Resolve(context.Background(), "https://example.com/data/points.csv?v=2", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "points.csv"), got)
	assert.Equal(t, []string{"https://example.com/data/points.csv?v=2"}, httpStub.calls)

	got, err = r.Resolve(context.Background(), "ftp://ftp.example.com/pub/dz.csv", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dz.csv"), got)
	assert.Len(t, ftpStub.calls, 1)
}

func TestResolve_UnsupportedScheme(t *testing.T) {
	_, err := (&Resolver{}).Resolve(context.Background(), "s3://bucket/points.csv", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")

	_, err = (&Resolver{}).Resolve(context.Background(), "https://example.com/points.csv", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fetcher configured")
}

func TestResolve_Zip(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{"points.csv": "x,y,dz\n0,0,1\n"})
	dir := t.TempDir()

	got, err := (&Resolver{}).Resolve(context.Background(), zipPath, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "points.csv"), got)

	tbl, err := ReadTable(context.Background(), got, TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "dz"}, tbl.Header)
}

func TestNewResolver(t *testing.T) {
	r := NewResolver(HTTPOptions{}, FTPOptions{})
	assert.IsType(t, &HTTPFetcher{}, r.HTTP)
	assert.IsType(t, &FTPFetcher{}, r.FTP)
}
