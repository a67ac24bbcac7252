// Package fetcher downloads dataset files over HTTP and FTP and parses the
// formats the upstream sources publish in: CSV, JSON arrays, XLSX workbooks,
// and ZIP bundles.
package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeCharset wraps r so its bytes are transcoded from the named charset
// to UTF-8. Needed for European CSV exports that ship as windows-1252.
func DecodeCharset(r io.Reader, charset string) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}

// CSVOptions configures CSV parsing.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
	HasHeader  bool           // skip the first row before calling fn
	Header     func([]string) // optional, receives the skipped header row
}

// EachCSVRow parses CSV from r and invokes fn once per data row. Field counts
// are not enforced; upstream exports are frequently ragged and callers filter
// short rows themselves. Returning an error from fn stops the scan.
func EachCSVRow(ctx context.Context, r io.Reader, opts CSVOptions, fn func([]string) error) error {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	for first := true; ; first = false {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "csv: scan cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range row {
				row[i] = strings.TrimSpace(field)
			}
		}

		if first && opts.HasHeader {
			if opts.Header != nil {
				opts.Header(row)
			}
			continue
		}

		if err := fn(row); err != nil {
			return err
		}
	}
}
