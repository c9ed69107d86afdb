package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fieldmap/internal/geo"
	"github.com/sells-group/fieldmap/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// seedRuns records one complete build run with a raster on disk and one
// run still in progress.
func seedRuns(t *testing.T, st store.Store) (complete, running *store.Run) {
	t.Helper()
	ctx := context.Background()

	rasterPath := filepath.Join(t.TempDir(), "dz.tif")
	require.NoError(t, os.WriteFile(rasterPath, []byte("raster-bytes"), 0o644))

	complete, err := st.CreateRun(ctx, store.RunInput{
		Kind: store.RunKindBuild, Name: "dz", Source: "dz.csv",
		Method: "linear", NoData: -9999, CRS: "EPSG:32610",
	})
	require.NoError(t, err)

	fp, err := geo.Footprint(geo.Extent{XMin: 0, YMin: 0, XMax: 4, YMax: 4}, "EPSG:32610")
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, complete.ID, store.RunOutput{
		Output: rasterPath, Resolution: 1, Footprint: fp,
	}))

	running, err = st.CreateRun(ctx, store.RunInput{
		Kind: store.RunKindClassify, Name: "dz_classes", Source: rasterPath,
		Method: "natural_breaks", NoData: -9999,
	})
	require.NoError(t, err)
	return complete, running
}

func serveRequest(h http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	h := newRouter(newTestStore(t), []string{"*"})

	rr := serveRequest(h, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_ListRuns(t *testing.T) {
	st := newTestStore(t)
	complete, _ := seedRuns(t, st)
	h := newRouter(st, []string{"*"})

	rr := serveRequest(h, "/runs", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var all []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rr = serveRequest(h, "/runs?kind=build&status=complete", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var builds []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &builds))
	require.Len(t, builds, 1)
	assert.Equal(t, complete.ID, builds[0]["id"])
	assert.IsType(t, map[string]any{}, builds[0]["footprint"])
}

func TestRouter_ListRuns_BadQuery(t *testing.T) {
	h := newRouter(newTestStore(t), []string{"*"})

	for _, q := range []string{"limit=ten", "offset=-1"} {
		rr := serveRequest(h, "/runs?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestRouter_GetRun(t *testing.T) {
	st := newTestStore(t)
	complete, _ := seedRuns(t, st)
	h := newRouter(st, []string{"*"})

	rr := serveRequest(h, "/runs/"+complete.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "dz", got["name"])
	assert.Equal(t, "complete", got["status"])
	assert.Equal(t, -9999.0, got["nodata"])

	rr = serveRequest(h, "/runs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_DownloadRaster(t *testing.T) {
	st := newTestStore(t)
	complete, running := seedRuns(t, st)
	h := newRouter(st, []string{"*"})

	rr := serveRequest(h, "/runs/"+complete.ID+"/raster", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "raster-bytes", rr.Body.String())

	rr = serveRequest(h, "/runs/"+running.ID+"/raster", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serveRequest(h, "/runs/missing/raster", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_CORS(t *testing.T) {
	h := newRouter(newTestStore(t), []string{"https://maps.example.com"})

	rr := serveRequest(h, "/health", map[string]string{"Origin": "https://maps.example.com"})
	assert.Equal(t, "https://maps.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serveRequest(h, "/health", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_StoreError(t *testing.T) {
	st := newTestStore(t)
	h := newRouter(st, []string{"*"})
	require.NoError(t, st.Close())

	rr := serveRequest(h, "/runs", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
