package pipeline

import "github.com/GiovanniGatti/trutheval/internal/model"

// NewReport pairs the processed records with the final counter values.
func NewReport(records []*model.Record, t *Tracker) *model.Report {
	if records == nil {
		records = []*model.Record{}
	}
	return &model.Report{Report: t.Snapshot(), Questions: records}
}
