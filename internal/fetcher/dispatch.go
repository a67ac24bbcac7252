package fetcher

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// SchemeFetcher routes requests by URL scheme. HTTP and HTTPS go to the
// HTTP fetcher; ftp:// URLs go to the FTP fetcher. FTP has no conditional
// request support, so DownloadIfChanged always refetches.
type SchemeFetcher struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// NewSchemeFetcher composes an HTTP and an FTP fetcher behind one interface.
func NewSchemeFetcher(http *HTTPFetcher, ftp *FTPFetcher) *SchemeFetcher {
	return &SchemeFetcher{http: http, ftp: ftp}
}

func isFTP(url string) bool {
	return strings.HasPrefix(url, "ftp://")
}

func (s *SchemeFetcher) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	if isFTP(url) {
		if s.ftp == nil {
			return nil, eris.Errorf("no ftp fetcher configured for %s", url)
		}
		return s.ftp.Download(ctx, url)
	}
	return s.http.Download(ctx, url)
}

func (s *SchemeFetcher) DownloadToFile(ctx context.Context, url string, path string) (int64, error) {
	if isFTP(url) {
		if s.ftp == nil {
			return 0, eris.Errorf("no ftp fetcher configured for %s", url)
		}
		return s.ftp.DownloadToFile(ctx, url, path)
	}
	return s.http.DownloadToFile(ctx, url, path)
}

func (s *SchemeFetcher) DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error) {
	if isFTP(url) {
		rc, err := s.Download(ctx, url)
		if err != nil {
			return nil, "", false, err
		}
		return rc, "", true, nil
	}
	return s.http.DownloadIfChanged(ctx, url, etag)
}
