package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads dataset files from their upstream mirrors.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns the bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// DownloadIfChanged fetches the URL conditionally on the given ETag.
	// Returns (body, newETag, changed, error); when the content is unchanged
	// the body is nil and changed is false.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}
