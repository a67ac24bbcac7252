package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// EachJSONElement decodes a top-level JSON array one element at a time,
// invoking fn for each. Responses like the Comtrade data envelope can carry
// tens of thousands of records; decoding incrementally keeps memory bounded
// regardless of payload size. An empty input is treated as an empty array.
func EachJSONElement[T any](ctx context.Context, r io.Reader, fn func(T) error) error {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return eris.Wrap(err, "json: read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return eris.Errorf("json: expected array, got %v", tok)
	}

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "json: decode cancelled")
		}
		var elem T
		if err := dec.Decode(&elem); err != nil {
			return eris.Wrap(err, "json: decode element")
		}
		if err := fn(elem); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return eris.Wrap(err, "json: read closing token")
	}
	return nil
}
