package pipeline

import (
	"fmt"

	"github.com/GiovanniGatti/trutheval/internal/model"
)

// ConfigurationError reports a step or pipeline built with invalid
// parameters. It is raised at construction time.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Component, e.Reason)
}

// MissingFieldError reports a record that lacks a field a step depends on.
// It means the steps are wired in the wrong order, not that the input is bad.
type MissingFieldError struct {
	Step     string
	Required []model.Field
	Missing  []model.Field
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf(
		"%s requires %v, but some are missing from the record: %v. Check pipeline dependencies before proceeding.",
		e.Step, e.Required, e.Missing,
	)
}

// UndeclaredCounterError reports a read or write of a counter that was not
// declared up front.
type UndeclaredCounterError struct {
	Counter Counter
}

func (e *UndeclaredCounterError) Error() string {
	return fmt.Sprintf("counter %q is not declared; add it to the step's declared counters before using it", string(e.Counter))
}

// isFatal reports whether err is one of the typed errors that signal a
// broken pipeline rather than a failed collaborator.
func isFatal(err error) bool {
	switch err.(type) {
	case *ConfigurationError, *MissingFieldError, *UndeclaredCounterError:
		return true
	default:
		return false
	}
}
