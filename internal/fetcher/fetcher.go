// Package fetcher downloads hydrography archives over HTTP and FTP with
// per-host rate limiting and retry.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote hydrography data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// ConditionalFetcher is implemented by fetchers that support ETag-based
// conditional downloads, so repeated imports can skip unchanged archives.
type ConditionalFetcher interface {
	// DownloadIfChanged fetches the URL only if the ETag has changed.
	// Returns (body, newETag, changed, error). If not changed, body is nil.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}
