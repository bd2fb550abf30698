package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/GiovanniGatti/trutheval/internal/model"
	"github.com/GiovanniGatti/trutheval/internal/textutil"
)

// Filter keeps the most important share of the ranked spans that are not
// blacklisted.
type Filter struct {
	Declaration
	keep float64
}

// NewFilter creates the filter step. keep is the fraction of ranked spans
// retained and must be in (0, 1].
func NewFilter(keep float64) (*Filter, error) {
	if !(keep > 0 && keep <= 1) {
		return nil, &ConfigurationError{Component: "Filter", Reason: fmt.Sprintf("keep must be in (0, 1], got %v", keep)}
	}
	return &Filter{
		Declaration: Declare("Filter", []model.Field{model.FieldRankedFactualData, model.FieldBlacklisted}),
		keep:        keep,
	}, nil
}

// Apply sets factual_data to the first ceil(n*keep) ranked spans minus the
// blacklisted ones, in ranking order. It is null when nothing was ranked
// or the blacklist could not be computed.
func (s *Filter) Apply(_ context.Context, rec *model.Record, _ Incrementer) error {
	ranked := rec.RankedFactualData
	if len(ranked) == 0 || rec.Blacklisted == nil {
		rec.SetFactualData(nil)
		return nil
	}

	n := int(math.Ceil(float64(len(ranked)) * s.keep))
	blacklisted := textutil.LowerSet(rec.Blacklisted)

	out := []string{}
	for _, span := range ranked[:n] {
		if _, ok := blacklisted[textutil.Lower(span)]; ok {
			continue
		}
		out = append(out, span)
	}
	rec.SetFactualData(out)
	return nil
}
