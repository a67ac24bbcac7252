package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher retrieves bulk dataset files from FTP mirrors such as the FAO
// crop calendar archive. Logins are anonymous; the mirrors serve public data.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates an FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTPFetcher{opts: opts}
}

// splitFTPURL extracts the dial address (host:port) and remote path from an
// ftp:// URL, defaulting the port to 21.
func splitFTPURL(rawURL string) (addr, remotePath string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrapf(err, "ftp: parse %s", rawURL)
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("ftp: unexpected scheme %q in %s", u.Scheme, rawURL)
	}
	if u.Path == "" {
		return "", "", eris.Errorf("ftp: no remote path in %s", rawURL)
	}

	addr = u.Host
	if _, _, splitErr := net.SplitHostPort(addr); splitErr != nil {
		addr = net.JoinHostPort(addr, "21")
	}
	return addr, u.Path, nil
}

// ftpBody streams one retrieved file. Closing it releases both the transfer
// and the control connection.
type ftpBody struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (b *ftpBody) Read(p []byte) (int, error) { return b.resp.Read(p) }

func (b *ftpBody) Close() error {
	respErr := b.resp.Close()
	quitErr := b.conn.Quit()
	switch {
	case respErr != nil:
		return eris.Wrap(respErr, "ftp: close transfer")
	case quitErr != nil:
		return eris.Wrap(quitErr, "ftp: quit")
	}
	return nil
}

// Download retrieves the file behind an ftp:// URL. The caller must close the
// returned reader to release the connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	addr, remotePath, err := splitFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp: retrieving", zap.String("addr", addr), zap.String("path", remotePath))

	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: dial %s", addr)
	}
	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		conn.Quit()
		return nil, eris.Wrapf(err, "ftp: login %s", addr)
	}
	resp, err := conn.Retr(remotePath)
	if err != nil {
		conn.Quit()
		return nil, eris.Wrapf(err, "ftp: retrieve %s", remotePath)
	}
	return &ftpBody{resp: resp, conn: conn}, nil
}

// DownloadToFile retrieves an ftp:// URL into path and returns bytes written.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, ftpURL string, path string) (int64, error) {
	body, err := f.Download(ctx, ftpURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	out, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ftp: create %s", path)
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, body)
	return n, eris.Wrapf(err, "ftp: write %s", path)
}
