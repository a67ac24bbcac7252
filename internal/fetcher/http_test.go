package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/seasonscope/internal/resilience"
)

func datasetFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	return NewHTTPFetcher(HTTPOptions{
		UserAgent:  "seasonscope-test",
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	})
}

func TestDownloadSendsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "seasonscope-test", r.Header.Get("User-Agent"))
		w.Write([]byte("product,emissions_per_kg\nLentils,0.9\n"))
	}))
	defer srv.Close()

	body, err := datasetFetcher(t).Download(context.Background(), srv.URL+"/ghg.csv")
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Lentils")
}

func TestDownloadToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "aqueduct.zip")
	n, err := datasetFetcher(t).DownloadToFile(context.Background(), srv.URL, path)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zip bytes", string(data))
}

func TestDownloadToFileBadDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	_, err := datasetFetcher(t).DownloadToFile(context.Background(), srv.URL, "/nonexistent/dir/file")
	require.Error(t, err)
}

func TestDownloadNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := datasetFetcher(t).Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.False(t, resilience.IsTransient(err))
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 5})
	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(data))
	assert.Equal(t, int32(3), hits.Load())
}

func TestDownloadExhaustedRetriesAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Timeout: 2 * time.Second, MaxRetries: 2})
	_, err := f.Download(context.Background(), srv.URL)
	require.Error(t, err)

	// The retry budget inside the fetcher is spent, but the failure class
	// stays visible so a caller's breaker can count it.
	assert.True(t, resilience.IsTransient(err))
}

func TestDownloadContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := datasetFetcher(t).Download(ctx, srv.URL)
	require.Error(t, err)
}

func TestDownloadIfChangedNotModified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("body"))
	}))
	defer srv.Close()

	f := datasetFetcher(t)
	body, etag, changed, err := f.DownloadIfChanged(context.Background(), srv.URL, "")
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, body.Close())
	assert.Equal(t, `"v1"`, etag)

	_, etag, changed, err = f.DownloadIfChanged(context.Background(), srv.URL, `"v1"`)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, `"v1"`, etag)
}

func TestDownloadIfChangedNewVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v2"`)
		w.Write([]byte("fresh release"))
	}))
	defer srv.Close()

	body, etag, changed, err := datasetFetcher(t).DownloadIfChanged(context.Background(), srv.URL, `"v1"`)
	require.NoError(t, err)
	require.True(t, changed)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "fresh release", string(data))
	assert.Equal(t, `"v2"`, etag)
}

func TestDownloadIfChangedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, _, err := datasetFetcher(t).DownloadIfChanged(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestPerHostRateLimiting(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	f := NewHTTPFetcher(HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		RateLimiters: map[string]*rate.Limiter{
			host: rate.NewLimiter(10, 1),
		},
	})

	start := time.Now()
	for range 3 {
		body, err := f.Download(context.Background(), srv.URL)
		require.NoError(t, err)
		require.NoError(t, body.Close())
	}

	// Burst of 1 at 10/s: the second and third request each wait ~100ms.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, int32(3), hits.Load())
}

func TestLimiterForUnknownHost(t *testing.T) {
	f := datasetFetcher(t)
	lim := f.limiterFor("https://unknown.example.org/data.csv")
	assert.Equal(t, rate.Limit(20), lim.Limit())
}

func TestDefaultRateLimiters(t *testing.T) {
	limiters := DefaultRateLimiters()
	for _, host := range []string{
		"catalog.ourworldindata.org", "data.ademe.fr", "www.fao.org",
		"bulks.fao.org", "comtradeapi.un.org", "files.wri.org",
	} {
		assert.Contains(t, limiters, host)
	}
	// Comtrade's free tier is the tightest quota of the set.
	assert.Equal(t, rate.Limit(1), limiters["comtradeapi.un.org"].Limit())
}

func TestNewHTTPFetcherDefaults(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	assert.Equal(t, 30*time.Second, f.opts.Timeout)
	assert.Equal(t, 3, f.opts.MaxRetries)
	assert.Equal(t, "seasonscope/1.0", f.opts.UserAgent)
}

func TestAdaptiveLimiterTuning(t *testing.T) {
	a := NewAdaptiveLimiter(10, 5)

	a.OnSuccess()
	assert.InDelta(t, 12.0, float64(a.Limit()), 0.001)

	// Growth caps at twice the initial rate.
	for range 20 {
		a.OnSuccess()
	}
	assert.Equal(t, rate.Limit(20), a.Limit())

	a.OnRateLimit()
	assert.Equal(t, rate.Limit(10), a.Limit())

	// Shrink floors at a quarter of the initial rate.
	for range 20 {
		a.OnRateLimit()
	}
	assert.Equal(t, rate.Limit(2.5), a.Limit())
}

func TestAdaptiveLimiterWaitCancelled(t *testing.T) {
	a := NewAdaptiveLimiter(0.001, 1)
	require.NoError(t, a.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, a.Wait(ctx))
}

func TestRateLimitedResponseSlowsAdaptiveHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	f := NewHTTPFetcher(HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 3})
	f.adaptiveLimiters[host] = NewAdaptiveLimiter(100, 10)

	body, err := f.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NoError(t, body.Close())

	assert.Equal(t, int32(2), hits.Load())
	// Halved by the 429 to 50, then nudged up 20% by the success.
	assert.Equal(t, rate.Limit(60), f.adaptiveLimiters[host].Limit())
}

func TestDefaultAdaptiveLimiters(t *testing.T) {
	limiters := DefaultAdaptiveLimiters()
	assert.Contains(t, limiters, "comtradeapi.un.org")
	assert.Contains(t, limiters, "catalog.ourworldindata.org")
	assert.Nil(t, datasetFetcher(t).adaptiveLimiterFor("https://unknown.example.org/x"))
}
