package export

import (
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/model"
)

const sheetName = "dataset"

var xlsxHeader = []string{"ID", "Question", "Ground Truth", "Level", "Answer", "Score"}

// WriteXLSX writes one row per item and level so graders can fill in the
// Score column. Levels are ordered A0, A1, ... by their numeric suffix.
func WriteXLSX(path string, ds model.Dataset) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	row := sheet.AddRow()
	for _, h := range xlsxHeader {
		row.AddCell().SetString(h)
	}

	rows := 0
	for _, item := range ds.Questions {
		for _, level := range sortedLevels(item.Answers) {
			row := sheet.AddRow()
			row.AddCell().SetInt(item.ID)
			row.AddCell().SetString(item.Question)
			row.AddCell().SetString(item.GroundTruth)
			row.AddCell().SetString(level)
			row.AddCell().SetString(item.Answers[level])
			row.AddCell().SetString("")
			rows++
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	zap.L().Info("export: wrote spreadsheet", zap.String("path", path), zap.Int("rows", rows))
	return nil
}

func sortedLevels(l model.Levels) []string {
	out := make([]string, 0, len(l))
	for k := range l {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b string) int {
		ai, aok := levelIndex(a)
		bi, bok := levelIndex(b)
		if aok && bok && ai != bi {
			return ai - bi
		}
		return strings.Compare(a, b)
	})
	return out
}

func levelIndex(level string) (int, bool) {
	if !strings.HasPrefix(level, "A") {
		return 0, false
	}
	n, err := strconv.Atoi(level[1:])
	return n, err == nil
}
