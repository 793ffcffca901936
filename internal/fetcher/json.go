package fetcher

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// maxJSONBytes caps decoded payloads; analytics responses are a few hundred
// kilobytes at most.
const maxJSONBytes = 64 << 20

// DecodeJSONObject decodes a single JSON value from a reader.
func DecodeJSONObject[T any](r io.Reader) (*T, error) {
	var obj T
	if err := json.NewDecoder(io.LimitReader(r, maxJSONBytes)).Decode(&obj); err != nil {
		return nil, eris.Wrap(err, "json: decode object")
	}
	return &obj, nil
}
