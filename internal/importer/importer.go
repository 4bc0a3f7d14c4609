package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/akinsgre/paddlepartner-waterways/internal/fetcher"
	"github.com/akinsgre/paddlepartner-waterways/internal/store"
)

const defaultBatchSize = 500

// Importer downloads hydrography archives and loads their water bodies into
// the store.
type Importer struct {
	store     store.Store
	http      fetcher.Fetcher
	ftp       fetcher.Fetcher
	batchSize int

	// CacheDir, when set, holds ETag sidecar files so repeated URL imports
	// can skip archives that have not changed upstream.
	CacheDir string
}

// New creates an Importer. The ftp fetcher may be nil if only HTTP sources
// are used.
func New(s store.Store, httpFetcher, ftpFetcher fetcher.Fetcher) *Importer {
	return &Importer{
		store:     s,
		http:      httpFetcher,
		ftp:       ftpFetcher,
		batchSize: defaultBatchSize,
	}
}

// ImportFile loads one shapefile into the store in batches.
func (im *Importer) ImportFile(ctx context.Context, shpPath, source string) (int64, error) {
	bodies, err := ReadShapefile(shpPath, source)
	if err != nil {
		return 0, err
	}

	var total int64
	for start := 0; start < len(bodies); start += im.batchSize {
		end := min(start+im.batchSize, len(bodies))
		n, err := im.store.UpsertWaterBodies(ctx, bodies[start:end])
		if err != nil {
			return total, eris.Wrapf(err, "importer: upsert batch at %d", start)
		}
		total += n
	}

	zap.L().Info("importer: shapefile loaded",
		zap.String("path", shpPath),
		zap.String("source", source),
		zap.Int64("rows", total),
	)
	return total, nil
}

// ImportArchive extracts a ZIP archive and imports every shapefile in it.
func (im *Importer) ImportArchive(ctx context.Context, zipPath, source string) (int64, error) {
	destDir, err := os.MkdirTemp("", "waterways-import-*")
	if err != nil {
		return 0, eris.Wrap(err, "importer: create temp dir")
	}
	defer os.RemoveAll(destDir) //nolint:errcheck

	extracted, err := fetcher.ExtractZIP(zipPath, destDir)
	if err != nil {
		return 0, err
	}

	var total int64
	var found bool
	for _, path := range extracted {
		if !strings.EqualFold(filepath.Ext(path), ".shp") {
			continue
		}
		found = true
		n, err := im.ImportFile(ctx, path, source)
		if err != nil {
			return total, err
		}
		total += n
	}
	if !found {
		return 0, eris.Errorf("importer: no shapefile in archive %s", zipPath)
	}
	return total, nil
}

// ImportURL downloads an archive over HTTP or FTP and imports it. HTTP
// sources with a cache dir use conditional downloads: if the upstream ETag
// matches the previous import, nothing is fetched and 0 rows are reported.
func (im *Importer) ImportURL(ctx context.Context, rawURL, source string) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, eris.Wrap(err, "importer: parse url")
	}

	tmp, err := os.CreateTemp("", "waterways-*.zip")
	if err != nil {
		return 0, eris.Wrap(err, "importer: create temp file")
	}
	tmp.Close() //nolint:errcheck
	defer os.Remove(tmp.Name()) //nolint:errcheck

	switch u.Scheme {
	case "http", "https":
		downloaded, err := im.downloadHTTP(ctx, rawURL, tmp.Name())
		if err != nil {
			return 0, err
		}
		if !downloaded {
			zap.L().Info("importer: archive unchanged upstream, skipping", zap.String("url", rawURL))
			return 0, nil
		}
	case "ftp":
		if im.ftp == nil {
			return 0, eris.New("importer: no ftp fetcher configured")
		}
		if _, err := im.ftp.DownloadToFile(ctx, rawURL, tmp.Name()); err != nil {
			return 0, err
		}
	default:
		return 0, eris.Errorf("importer: unsupported scheme %q", u.Scheme)
	}

	return im.ImportArchive(ctx, tmp.Name(), source)
}

// downloadHTTP fetches the URL to path, using a conditional request when an
// ETag from a previous run is cached. Returns false if upstream is unchanged.
func (im *Importer) downloadHTTP(ctx context.Context, rawURL, path string) (bool, error) {
	cond, ok := im.http.(fetcher.ConditionalFetcher)
	if !ok || im.CacheDir == "" {
		_, err := im.http.DownloadToFile(ctx, rawURL, path)
		return true, err
	}

	etagPath := filepath.Join(im.CacheDir, urlKey(rawURL)+".etag")
	prev, _ := os.ReadFile(etagPath)

	body, etag, changed, err := cond.DownloadIfChanged(ctx, rawURL, strings.TrimSpace(string(prev)))
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return false, eris.Wrap(err, "importer: create download file")
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, body); err != nil {
		return false, eris.Wrap(err, "importer: write download")
	}

	if etag != "" {
		if err := os.MkdirAll(im.CacheDir, 0o755); err == nil {
			_ = os.WriteFile(etagPath, []byte(etag), 0o644)
		}
	}
	return true, nil
}

func urlKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:8])
}
