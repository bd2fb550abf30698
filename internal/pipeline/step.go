package pipeline

import (
	"context"
	"slices"

	"github.com/GiovanniGatti/trutheval/internal/model"
)

// Step is one stage of the pipeline. Validate runs before every Apply and
// Apply may only increment the counters the step declares.
type Step interface {
	Name() string
	Requires() []model.Field
	Counters() []Counter
	Validate(rec *model.Record) error
	Apply(ctx context.Context, rec *model.Record, inc Incrementer) error
}

// Declaration is the fixed contract of a step: the fields it reads and the
// counters it writes. Steps embed it.
type Declaration struct {
	name     string
	required []model.Field
	counters []Counter
}

// Declare builds a Declaration. required is kept sorted so error messages
// are stable.
func Declare(name string, required []model.Field, counters ...Counter) Declaration {
	req := slices.Clone(required)
	slices.Sort(req)
	return Declaration{name: name, required: req, counters: slices.Clone(counters)}
}

func (d Declaration) Name() string { return d.name }

func (d Declaration) Requires() []model.Field { return slices.Clone(d.required) }

func (d Declaration) Counters() []Counter { return slices.Clone(d.counters) }

// Validate returns a *MissingFieldError when rec lacks a required field.
func (d Declaration) Validate(rec *model.Record) error {
	var missing []model.Field
	for _, f := range d.required {
		if !rec.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldError{Step: d.name, Required: d.Requires(), Missing: missing}
	}
	return nil
}
