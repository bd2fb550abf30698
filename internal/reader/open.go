package reader

import (
	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/fetcher"
	"github.com/GiovanniGatti/trutheval/internal/pipeline"
)

// Open picks a reader from the extension of location: .csv, .tsv, .xlsx
// or JSON for anything else.
func Open(location string, fetch fetcher.Options) (pipeline.Reader, error) {
	if location == "" {
		return nil, eris.New("reader: empty input location")
	}
	switch fetcher.Ext(location) {
	case ".csv":
		return NewCSV(location, fetch, fetcher.CSVOptions{TrimSpace: true}), nil
	case ".tsv":
		return NewCSV(location, fetch, fetcher.CSVOptions{Delimiter: '\t', TrimSpace: true, LazyQuotes: true}), nil
	case ".xlsx":
		return NewXLSX(location, fetch, fetcher.XLSXOptions{}), nil
	default:
		return NewJSONLocation(location, fetch), nil
	}
}
