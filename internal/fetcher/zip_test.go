package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

func TestExtractZIP_ShapefileBundle(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"lakes.shp": "shp bytes",
		"lakes.dbf": "dbf bytes",
		"lakes.shx": "shx bytes",
		"lakes.prj": "prj bytes",
	})

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	assert.Len(t, extracted, 4)

	data, err := os.ReadFile(filepath.Join(destDir, "lakes.shp"))
	require.NoError(t, err)
	assert.Equal(t, "shp bytes", string(data))
}

func TestExtractZIP_NestedDirectories(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"hydro/Shape/NHDWaterbody.shp": "shp bytes",
		"hydro/Shape/NHDWaterbody.dbf": "dbf bytes",
	})

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	assert.Len(t, extracted, 2)

	_, err = os.Stat(filepath.Join(destDir, "hydro", "Shape", "NHDWaterbody.shp"))
	require.NoError(t, err)
}

func TestExtractZIPFile_Specific(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"lakes.shp":  "shp bytes",
		"readme.txt": "notes",
	})

	path, err := ExtractZIPFile(zipPath, "lakes.shp", t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shp bytes", string(data))
}

func TestExtractZIPFile_Missing(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{"lakes.shp": "x"})

	_, err := ExtractZIPFile(zipPath, "rivers.shp", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExtractZIP_RejectsZipSlip(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"../escape.txt": "evil",
	})

	_, err := ExtractZIP(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}
