// Package export writes run outputs: the full report, the benchmark dataset
// and a spreadsheet for human evaluation.
package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/model"
)

const (
	ReportFile  = "report.json"
	DatasetFile = "dataset.json"
	XLSXFile    = "dataset.xlsx"
)

// WriteJSON writes report.json and dataset.json into dir, creating it if
// needed. It returns the dataset it wrote.
func WriteJSON(dir string, report *model.Report) (model.Dataset, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.Dataset{}, eris.Wrapf(err, "export: create %s", dir)
	}
	if err := writeIndented(filepath.Join(dir, ReportFile), report); err != nil {
		return model.Dataset{}, err
	}
	ds := report.ToDataset()
	if err := writeIndented(filepath.Join(dir, DatasetFile), ds); err != nil {
		return model.Dataset{}, err
	}
	zap.L().Info("export: wrote json outputs",
		zap.String("dir", dir),
		zap.Int("records", len(report.Questions)),
		zap.Int("dataset_items", len(ds.Questions)),
	)
	return ds, nil
}

func writeIndented(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrapf(err, "export: encode %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
