package importer

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinsgre/paddlepartner-waterways/internal/fetcher"
	"github.com/akinsgre/paddlepartner-waterways/internal/store"
)

// captureStore records upsert batches.
type captureStore struct {
	batches [][]store.WaterBody
	err     error
}

func (c *captureStore) UpsertWaterBodies(ctx context.Context, bodies []store.WaterBody) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.batches = append(c.batches, bodies)
	return int64(len(bodies)), nil
}

func (c *captureStore) SearchNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]store.WaterBody, error) {
	return nil, nil
}

func (c *captureStore) SearchByName(ctx context.Context, name string, limit int) ([]store.WaterBody, error) {
	return nil, nil
}

func (c *captureStore) ListWaterBodies(ctx context.Context, limit, offset int) ([]store.WaterBody, error) {
	return nil, nil
}

func (c *captureStore) CountWaterBodies(ctx context.Context) (int64, error) { return 0, nil }
func (c *captureStore) Migrate(ctx context.Context) error                   { return nil }
func (c *captureStore) Close() error                                        { return nil }

func (c *captureStore) total() int {
	n := 0
	for _, b := range c.batches {
		n += len(b)
	}
	return n
}

// zipShapefile bundles the test shapefile and its sidecars into a ZIP.
func zipShapefile(t *testing.T) string {
	t.Helper()
	shpDir := t.TempDir()
	shpPath := writeTestShapefile(t, shpDir)

	zipPath := filepath.Join(t.TempDir(), "hydro.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		src := shpPath[:len(shpPath)-4] + ext
		data, err := os.ReadFile(src)
		require.NoError(t, err)
		fw, err := w.Create(filepath.Base(src))
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

func TestImportFile_Batches(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())

	cs := &captureStore{}
	im := New(cs, nil, nil)
	im.batchSize = 1

	n, err := im.ImportFile(context.Background(), path, "nhd")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Len(t, cs.batches, 2)
}

func TestImportArchive(t *testing.T) {
	zipPath := zipShapefile(t)

	cs := &captureStore{}
	im := New(cs, nil, nil)

	n, err := im.ImportArchive(context.Background(), zipPath, "nhd")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, cs.total())
}

func TestImportArchive_NoShapefile(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "notes.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	fw, err := w.Create("readme.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("no shapes here"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	im := New(&captureStore{}, nil, nil)
	_, err = im.ImportArchive(context.Background(), zipPath, "nhd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no shapefile")
}

func TestImportURL_HTTP(t *testing.T) {
	zipData, err := os.ReadFile(zipShapefile(t))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipData)
	}))
	defer srv.Close()

	cs := &captureStore{}
	im := New(cs, fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second}), nil)

	n, err := im.ImportURL(context.Background(), srv.URL+"/hydro.zip", "nhd")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestImportURL_SkipsUnchangedETag(t *testing.T) {
	zipData, err := os.ReadFile(zipShapefile(t))
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"snapshot-1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"snapshot-1"`)
		w.Write(zipData)
	}))
	defer srv.Close()

	cs := &captureStore{}
	im := New(cs, fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second}), nil)
	im.CacheDir = t.TempDir()

	n, err := im.ImportURL(context.Background(), srv.URL+"/hydro.zip", "nhd")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = im.ImportURL(context.Background(), srv.URL+"/hydro.zip", "nhd")
	require.NoError(t, err)
	assert.Zero(t, n, "second import should skip the unchanged archive")
	assert.Equal(t, 2, cs.total())
}

func TestImportURL_UnsupportedScheme(t *testing.T) {
	im := New(&captureStore{}, nil, nil)
	_, err := im.ImportURL(context.Background(), "gopher://example.com/hydro.zip", "nhd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestImportURL_FTPWithoutFetcher(t *testing.T) {
	im := New(&captureStore{}, nil, nil)
	_, err := im.ImportURL(context.Background(), "ftp://ftp.example.com/hydro.zip", "nhd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ftp fetcher")
}
