package ingest

import (
	"context"
	"io"
	"net/url"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/resilience"
)

// guardedFetcher wraps a Fetcher with a bounded retry loop and a per-host
// circuit breaker. After repeated failures against one host, later requests
// to it fail immediately and connectors move to their snapshot fallbacks.
type guardedFetcher struct {
	inner    fetcher.Fetcher
	backoff  resilience.Backoff
	breakers *resilience.HostBreakers
}

func newGuardedFetcher(inner fetcher.Fetcher, backoff resilience.Backoff, breaker resilience.BreakerConfig) *guardedFetcher {
	return &guardedFetcher{
		inner:    inner,
		backoff:  backoff,
		breakers: resilience.NewHostBreakers(breaker),
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func (g *guardedFetcher) backoffFor(host string) resilience.Backoff {
	b := g.backoff
	b.Notify = resilience.LogRetries(host)
	return b
}

func (g *guardedFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	host := hostOf(rawURL)
	return resilience.Guard(ctx, g.breakers.For(host), func(ctx context.Context) (io.ReadCloser, error) {
		return resilience.Attempt(ctx, g.backoffFor(host), func(ctx context.Context) (io.ReadCloser, error) {
			return g.inner.Download(ctx, rawURL)
		})
	})
}

func (g *guardedFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	host := hostOf(rawURL)
	return resilience.Guard(ctx, g.breakers.For(host), func(ctx context.Context) (int64, error) {
		return resilience.Attempt(ctx, g.backoffFor(host), func(ctx context.Context) (int64, error) {
			return g.inner.DownloadToFile(ctx, rawURL, path)
		})
	})
}

func (g *guardedFetcher) DownloadIfChanged(ctx context.Context, rawURL string, etag string) (io.ReadCloser, string, bool, error) {
	type result struct {
		body    io.ReadCloser
		etag    string
		changed bool
	}
	host := hostOf(rawURL)
	res, err := resilience.Guard(ctx, g.breakers.For(host), func(ctx context.Context) (result, error) {
		body, newETag, changed, err := g.inner.DownloadIfChanged(ctx, rawURL, etag)
		return result{body, newETag, changed}, err
	})
	return res.body, res.etag, res.changed, err
}
