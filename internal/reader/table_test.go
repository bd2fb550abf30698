package reader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/GiovanniGatti/trutheval/internal/fetcher"
	"github.com/GiovanniGatti/trutheval/internal/pipeline"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFromRows(t *testing.T) {
	records, err := fromRows("test", [][]string{
		{"ID", " Question ", "Ground Truth", "notes"},
		{"1", "What is Go?", " A language. ", "x"},
		{"", "", "", ""},
		{"2", "Short row?"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "What is Go?", records[0].Question)
	assert.Equal(t, "A language.", records[0].GroundTruth)
	assert.Equal(t, "Short row?", records[1].Question)
	assert.Equal(t, "", records[1].GroundTruth)
}

func TestFromRows_Errors(t *testing.T) {
	_, err := fromRows("test", nil)
	assert.True(t, errors.Is(err, ErrNoHeader))

	_, err = fromRows("test", [][]string{{"question", "reference"}})
	assert.True(t, errors.Is(err, ErrMissingKeys))
}

func TestCSV_Samples(t *testing.T) {
	path := writeFile(t, "q.csv", "question,ground_truth\n"+
		"\"Where is the Eiffel Tower?\",\"In Paris, France.\"\n"+
		"What is 2+2?,4\n")

	records, err := NewCSV(path, fetcher.Options{}, fetcher.CSVOptions{}).Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "In Paris, France.", records[0].GroundTruth)
	assert.Equal(t, "4", records[1].GroundTruth)
}

func TestCSV_Malformed(t *testing.T) {
	path := writeFile(t, "q.csv", "question,ground_truth\n\"unterminated,4\n")

	_, err := NewCSV(path, fetcher.Options{}, fetcher.CSVOptions{}).Samples(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reader: parse")
}

func TestCSV_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("question,answer\nWhy?,Because.\n"))
	}))
	defer srv.Close()

	records, err := NewCSV(srv.URL+"/q.csv", fetcher.Options{}, fetcher.CSVOptions{}).Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Because.", records[0].GroundTruth)
}

func TestXLSX_Samples(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("questions")
	require.NoError(t, err)
	for _, cells := range [][]string{
		{"question", "ground_truth"},
		{"What is photosynthesis?", "Plants make glucose."},
	} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "q.xlsx")
	require.NoError(t, f.Save(path))

	records, err := NewXLSX(path, fetcher.Options{}, fetcher.XLSXOptions{}).Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "What is photosynthesis?", records[0].Question)
	assert.Equal(t, "Plants make glucose.", records[0].GroundTruth)
}

func TestXLSX_Missing(t *testing.T) {
	_, err := NewXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), fetcher.Options{}, fetcher.XLSXOptions{}).
		Samples(context.Background())
	assert.Error(t, err)
}

func TestOpen_PicksReader(t *testing.T) {
	tests := []struct {
		location string
		want     pipeline.Reader
	}{
		{"data/q.json", &JSON{}},
		{"data/q", &JSON{}},
		{"data/q.CSV", &CSV{}},
		{"data/q.tsv", &CSV{}},
		{"https://example.com/q.xlsx?dl=1", &XLSX{}},
	}
	for _, tt := range tests {
		src, err := Open(tt.location, fetcher.Options{})
		require.NoError(t, err, tt.location)
		assert.IsType(t, tt.want, src, tt.location)
	}

	_, err := Open("", fetcher.Options{})
	assert.Error(t, err)
}

func TestOpen_TSV(t *testing.T) {
	path := writeFile(t, "q.tsv", "question\tground_truth\nWho wrote \"Dune\"?\tFrank Herbert\n")

	src, err := Open(path, fetcher.Options{})
	require.NoError(t, err)
	records, err := src.Samples(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `Who wrote "Dune"?`, records[0].Question)
}
