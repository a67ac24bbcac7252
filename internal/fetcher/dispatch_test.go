package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeFetcherRoutesHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	sf := NewSchemeFetcher(NewHTTPFetcher(HTTPOptions{}), NewFTPFetcher(FTPOptions{}))

	rc, err := sf.Download(context.Background(), srv.URL+"/file.csv")
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestSchemeFetcherFTPWithoutFetcher(t *testing.T) {
	sf := NewSchemeFetcher(NewHTTPFetcher(HTTPOptions{}), nil)

	_, err := sf.Download(context.Background(), "ftp://bulks.fao.org/production/crop_calendar.zip")
	assert.Error(t, err)

	_, err = sf.DownloadToFile(context.Background(), "ftp://bulks.fao.org/file.zip", t.TempDir()+"/f")
	assert.Error(t, err)
}

func TestSchemeFetcherFTPConditionalAlwaysRefetches(t *testing.T) {
	sf := NewSchemeFetcher(NewHTTPFetcher(HTTPOptions{}), nil)

	// FTP has no conditional requests; routing still applies, so the nil
	// FTP fetcher surfaces as an error rather than an HTTP attempt.
	_, _, _, err := sf.DownloadIfChanged(context.Background(), "ftp://bulks.fao.org/file.zip", `"v1"`)
	assert.Error(t, err)
}
