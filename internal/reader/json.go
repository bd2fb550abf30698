// Package reader loads benchmark inputs.
package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/fetcher"
	"github.com/GiovanniGatti/trutheval/internal/model"
)

var (
	ErrNotArray    = eris.New("reader: expected top-level JSON array (list of samples)")
	ErrNotObject   = eris.New("reader: samples must be JSON objects")
	ErrMissingKeys = eris.New("reader: missing required keys: 'question' and 'ground_truth'")
	ErrNotString   = eris.New("reader: 'question' and 'ground_truth' must be strings")
)

// JSON reads a JSON array of {"question", "ground_truth"} objects. Other
// keys are ignored.
type JSON struct {
	open func(ctx context.Context) (io.ReadCloser, error)
	name string
}

// NewJSONFile reads samples from the file at path.
func NewJSONFile(path string) *JSON {
	return &JSON{
		name: path,
		open: func(context.Context) (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewJSONLocation reads samples from a local path or a remote URL.
func NewJSONLocation(location string, opts fetcher.Options) *JSON {
	return &JSON{
		name: location,
		open: func(ctx context.Context) (io.ReadCloser, error) { return fetcher.Open(ctx, location, opts) },
	}
}

// NewJSON reads samples from data.
func NewJSON(data []byte) *JSON {
	return &JSON{
		name: "<memory>",
		open: func(context.Context) (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Samples implements pipeline.Reader.
func (r *JSON) Samples(ctx context.Context) ([]*model.Record, error) {
	f, err := r.open(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "reader: open %s", r.name)
	}
	defer f.Close() //nolint:errcheck

	var top json.RawMessage
	if err := json.NewDecoder(f).Decode(&top); err != nil {
		return nil, eris.Wrapf(err, "reader: parse %s", r.name)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(top, &items); err != nil || items == nil {
		return nil, ErrNotArray
	}

	records := make([]*model.Record, 0, len(items))
	for i, raw := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return nil, eris.Wrapf(ErrNotObject, "sample %d", i)
		}
		qRaw, hasQ := obj["question"]
		gtRaw, hasGT := obj["ground_truth"]
		if !hasQ || !hasGT {
			return nil, eris.Wrapf(ErrMissingKeys, "sample %d", i)
		}
		var q, gt string
		if json.Unmarshal(qRaw, &q) != nil || json.Unmarshal(gtRaw, &gt) != nil {
			return nil, eris.Wrapf(ErrNotString, "sample %d", i)
		}
		records = append(records, model.NewRecord(q, gt))
	}
	return records, nil
}
