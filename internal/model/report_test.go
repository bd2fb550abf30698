package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport_ToDataset(t *testing.T) {
	valid := NewRecord("q1", "gt1")
	valid.SetAnswers(Levels{"A0": "a0", "A1": "a1"})

	partial := NewRecord("q2", "gt2")
	partial.SetAnswers(Levels{"A0": "a0"})

	missing := NewRecord("q3", "gt3")
	missing.SetAnswers(nil)

	later := NewRecord("q4", "gt4")
	later.SetAnswers(Levels{"A0": "a0", "A1": "a1", "A2": "a2"})

	report := &Report{
		Report:    map[string]int{"input_samples": 4},
		Questions: []*Record{valid, partial, missing, later},
	}

	ds := report.ToDataset()

	assert.Len(t, ds.Questions, 2)
	assert.Equal(t, 0, ds.Questions[0].ID)
	assert.Equal(t, "q1", ds.Questions[0].Question)
	assert.Equal(t, 3, ds.Questions[1].ID)
	assert.Equal(t, "gt4", ds.Questions[1].GroundTruth)
	assert.Len(t, ds.Questions[1].Answers, 3)
}

func TestReport_ToDatasetEmpty(t *testing.T) {
	ds := (&Report{}).ToDataset()
	assert.NotNil(t, ds.Questions)
	assert.Empty(t, ds.Questions)
}
