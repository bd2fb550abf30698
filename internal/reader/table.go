package reader

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/fetcher"
	"github.com/GiovanniGatti/trutheval/internal/model"
)

// ErrNoHeader is returned for a tabular input without a header row.
var ErrNoHeader = eris.New("reader: tabular input has no header row")

// columnAliases maps accepted header spellings to the record field.
var columnAliases = map[string]model.Field{
	"question":     model.FieldQuestion,
	"ground_truth": model.FieldGroundTruth,
	"ground truth": model.FieldGroundTruth,
	"groundtruth":  model.FieldGroundTruth,
	"answer":       model.FieldGroundTruth,
}

// fromRows turns a header row plus data rows into records. Extra columns
// are ignored, short rows read missing cells as empty and blank rows are
// skipped.
func fromRows(name string, rows [][]string) ([]*model.Record, error) {
	if len(rows) == 0 {
		return nil, eris.Wrapf(ErrNoHeader, "%s", name)
	}

	cols := map[model.Field]int{}
	for i, h := range rows[0] {
		f, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, dup := cols[f]; !dup {
			cols[f] = i
		}
	}
	qIdx, hasQ := cols[model.FieldQuestion]
	gtIdx, hasGT := cols[model.FieldGroundTruth]
	if !hasQ || !hasGT {
		return nil, eris.Wrapf(ErrMissingKeys, "%s header %q", name, rows[0])
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	records := make([]*model.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		records = append(records, model.NewRecord(cell(row, qIdx), cell(row, gtIdx)))
	}
	return records, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// CSV reads a CSV file whose header names the question and ground truth
// columns.
type CSV struct {
	location string
	fetch    fetcher.Options
	opts     fetcher.CSVOptions
}

// NewCSV reads samples from a local path or remote URL.
func NewCSV(location string, fetch fetcher.Options, opts fetcher.CSVOptions) *CSV {
	return &CSV{location: location, fetch: fetch, opts: opts}
}

// Samples implements pipeline.Reader.
func (r *CSV) Samples(ctx context.Context) ([]*model.Record, error) {
	body, err := fetcher.Open(ctx, r.location, r.fetch)
	if err != nil {
		return nil, eris.Wrapf(err, "reader: open %s", r.location)
	}
	defer body.Close() //nolint:errcheck

	rowCh, errCh := fetcher.StreamCSV(ctx, body, r.opts)
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "reader: parse %s", r.location)
	}
	return fromRows(r.location, rows)
}

// XLSX reads one sheet of a workbook whose header names the question and
// ground truth columns.
type XLSX struct {
	location string
	fetch    fetcher.Options
	opts     fetcher.XLSXOptions
}

// NewXLSX reads samples from a local path or remote URL.
func NewXLSX(location string, fetch fetcher.Options, opts fetcher.XLSXOptions) *XLSX {
	return &XLSX{location: location, fetch: fetch, opts: opts}
}

// Samples implements pipeline.Reader.
func (r *XLSX) Samples(ctx context.Context) ([]*model.Record, error) {
	path, cleanup, err := fetcher.Localize(ctx, r.location, r.fetch)
	if err != nil {
		return nil, eris.Wrapf(err, "reader: fetch %s", r.location)
	}
	defer cleanup()

	rows, err := fetcher.ReadXLSX(path, r.opts)
	if err != nil {
		return nil, eris.Wrapf(err, "reader: parse %s", r.location)
	}
	return fromRows(r.location, rows)
}
