package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/oracle"
)

func TestParaphrase_Apply(t *testing.T) {
	o := &mockOracle{}
	want := []oracle.Message{{
		Role: oracle.User,
		Content: "Rewrite the provided sentence to express the same idea in slightly different words while preserving " +
			"full accuracy, completeness, and meaning. Ensure the content remains faithful to the original and includes " +
			"all key details. Do not add any note.\n\nOriginal:\nWater boils at 100°C at sea level.\n\nParaphrased version:",
	}}
	o.On("Query", mock.Anything, want).Return("Water reaches its boiling point at 100°C.", nil)

	rec := model.NewRecord("When does water boil?", "Water boils at 100°C at sea level.")
	require.NoError(t, NewParaphrase(o).Apply(context.Background(), rec, fullTracker()))

	assert.Equal(t, model.Levels{"A0": "Water reaches its boiling point at 100°C."}, rec.Answers)
	o.AssertExpectations(t)
}

func TestParaphrase_EmptyGroundTruth(t *testing.T) {
	o := &mockOracle{}
	rec := model.NewRecord("When does water boil?", "")

	require.NoError(t, NewParaphrase(o).Apply(context.Background(), rec, fullTracker()))

	assert.True(t, rec.Has(model.FieldAnswers))
	assert.Nil(t, rec.Answers)
	o.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestParaphrase_OracleError(t *testing.T) {
	o := &mockOracle{}
	o.On("Query", mock.Anything, mock.Anything).Return("", errors.New("provider down"))

	rec := model.NewRecord("q", "gt")
	err := NewParaphrase(o).Apply(context.Background(), rec, fullTracker())
	assert.Error(t, err)
	assert.False(t, rec.Has(model.FieldAnswers))
}

func TestParaphrase_Declaration(t *testing.T) {
	s := NewParaphrase(&mockOracle{})
	assert.Equal(t, "Paraphrase", s.Name())
	assert.Equal(t, []model.Field{model.FieldGroundTruth}, s.Requires())
	assert.Empty(t, s.Counters())
}
