package model

// Report is the full outcome of a pipeline run: the final counter snapshot
// and every processed record.
type Report struct {
	Report    map[string]int `json:"report"`
	Questions []*Record      `json:"questions"`
}

// Item is a dataset entry: a question with its graded answers.
type Item struct {
	ID          int    `json:"id"`
	Question    string `json:"question"`
	GroundTruth string `json:"ground_truth"`
	Answers     Levels `json:"answers"`
}

// Dataset is the benchmark view of a report.
type Dataset struct {
	Questions []Item `json:"questions"`
}

// ToDataset keeps the records that produced more than one answer level.
// Item IDs are positions in the report so they stay stable across filters.
func (r *Report) ToDataset() Dataset {
	ds := Dataset{Questions: []Item{}}
	for i, rec := range r.Questions {
		if rec == nil || !rec.IsValid() {
			continue
		}
		ds.Questions = append(ds.Questions, Item{
			ID:          i,
			Question:    rec.Question,
			GroundTruth: rec.GroundTruth,
			Answers:     rec.Answers,
		})
	}
	return ds
}
